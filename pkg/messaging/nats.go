package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"

	"RSIRadar/pkg/model"
)

// Publisher 把已发出的RSI提醒发布到NATS JetStream，供下游服务消费
// 属于可选组件：未配置NATS时整个发布链路不存在
type Publisher struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
}

// NewPublisher 连接NATS并确保ALERTS流存在
func NewPublisher(natsURL string) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logrus.Warnf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logrus.Info("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        "ALERTS_STREAM",
		Subjects:    []string{"alerts.*"},
		Description: "RSI提醒事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     50000,
		MaxAge:      7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建ALERTS_STREAM失败: %w", err)
	}

	return &Publisher{conn: nc, jetStream: js}, nil
}

// Record 发布一条提醒事件，失败只记日志（与投递同样尽力而为）
func (p *Publisher) Record(ctx context.Context, alert model.AlertRecord) {
	payload, err := json.Marshal(alert)
	if err != nil {
		logrus.Errorf("序列化提醒事件失败: %v", err)
		return
	}
	if _, err := p.jetStream.Publish(ctx, "alerts.rsi", payload); err != nil {
		logrus.Errorf("发布提醒事件失败: %v", err)
	}
}

// Close 关闭NATS连接
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
