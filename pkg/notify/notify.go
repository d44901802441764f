// Package notify 将业务事件发布到 NATS，由推送网关投递给用户
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ludora-app/ludora-back-sub000/config"
)

// Envelope 通知消息体
type Envelope struct {
	EventID      string      `json:"event_id"`
	Event        string      `json:"event"`
	TargetUserID string      `json:"target_user_id"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// Publisher 基于 NATS Core 的通知发布器
// Publish 只写入客户端缓冲区，不等待服务端确认
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
	logger        *zap.Logger
}

// NewPublisher 连接 NATS
func NewPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("ludora-sessions"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS 连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS 已重连", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS 异步错误", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("连接 NATS 失败: %w", err)
	}

	logger.Info("NATS 连接成功", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, subjectPrefix: cfg.SubjectPrefix, logger: logger}, nil
}

// Subject 事件对应的发布主题
func (p *Publisher) Subject(event string) string {
	return p.subjectPrefix + "." + event
}

// Notify 发布通知，失败只记录日志
func (p *Publisher) Notify(_ context.Context, event string, payload interface{}, targetUserID string) {
	env := Envelope{
		EventID:      uuid.NewString(),
		Event:        event,
		TargetUserID: targetUserID,
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}

	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("序列化通知失败", zap.String("event", event), zap.Error(err))
		return
	}

	msg := &nats.Msg{
		Subject: p.Subject(event),
		Data:    data,
		Header: nats.Header{
			"Event-ID":    []string{env.EventID},
			"Target-User": []string{targetUserID},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Warn("发布通知失败",
			zap.String("event", event),
			zap.String("target_user_id", targetUserID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("通知已发布", zap.String("subject", msg.Subject), zap.String("event_id", env.EventID))
}

// Close 刷新缓冲并关闭连接
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Nop 不发送任何通知，NATS 不可用时降级使用
type Nop struct{}

// Notify 空实现
func (Nop) Notify(context.Context, string, interface{}, string) {}
