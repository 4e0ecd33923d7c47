// NATSBroker is the real-transport Broker implementation: it connects to
// a NATS server and consumes/publishes over a fixed pair of source and
// response queues.
package broker

import (
	"context"
	"fmt"

	"github.com/ClusterCockpit/cc-compute-worker/internal/wire"
	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
	"github.com/nats-io/nats.go"
)

// NATSConfig names the source and response subjects and the connection
// credentials.
type NATSConfig struct {
	Address       string
	Username      string
	Password      string
	CredsFilePath string
	SourceQueue   string
	ResponseQueue string
	// QueueGroup load-balances delivery across worker instances
	// subscribed to the same SourceQueue; defaults to SourceQueue.
	QueueGroup string
}

// NATSBroker is a Broker over a core NATS connection. Messages are taken
// off the source subject on receipt (auto-ack); the subjects are not
// backed by a persistent stream, so a message that arrives while no
// worker is subscribed, or whose handling is cut short, is not
// redelivered.
type NATSBroker struct {
	lifecycle
	conn *nats.Conn
	cfg  NATSConfig
	sub  *nats.Subscription
}

// NewNATSBroker connects to cfg.Address and returns an idle (unbound)
// NATSBroker.
func NewNATSBroker(cfg NATSConfig) (*NATSBroker, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("broker: NATS address is required")
	}
	if cfg.QueueGroup == "" {
		cfg.QueueGroup = cfg.SourceQueue
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("broker: NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("broker: NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Errorf("broker: NATS error: %v", err)
		}),
	)

	conn, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("broker: NATS connect: %w", err)
	}

	return &NATSBroker{conn: conn, cfg: cfg}, nil
}

func (b *NATSBroker) Bind(h Handler) error {
	return b.bind(h)
}

func (b *NATSBroker) Start(_ context.Context) error {
	shouldStart, handler, err := b.beginStart()
	if err != nil || !shouldStart {
		return err
	}

	sub, err := b.conn.QueueSubscribe(b.cfg.SourceQueue, b.cfg.QueueGroup, func(msg *nats.Msg) {
		b.deliver(msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("broker: subscribe to %q: %w", b.cfg.SourceQueue, err)
	}
	b.sub = sub
	log.Infof("broker: consuming from %q (queue group %q)", b.cfg.SourceQueue, b.cfg.QueueGroup)
	return nil
}

func (b *NATSBroker) deliver(raw []byte, handler Handler) {
	req, err := wire.DecodeRequest(raw)
	var resp wire.ComputeResponse
	if err != nil {
		resp = wire.Failed(wire.BestEffortRequestID(raw))
	} else {
		resp = handler(req)
	}

	encoded, err := wire.EncodeResponse(resp)
	if err != nil {
		log.Errorf("broker: encode response for request %q: %v", resp.RequestID, err)
		return
	}

	if err := b.conn.Publish(b.cfg.ResponseQueue, encoded); err != nil {
		log.Errorf("broker: publish response for request %q: %v", resp.RequestID, err)
	}
}

// Stop drains the subscription: interest in the source subject is
// removed, and messages already received are still passed to the
// handler. The drain runs in the background, so Stop returns without
// waiting for those deliveries to finish.
func (b *NATSBroker) Stop(_ context.Context) error {
	if !b.beginStop() {
		return nil
	}
	if b.sub != nil {
		if err := b.sub.Drain(); err != nil {
			log.Warnf("broker: drain subscription: %v", err)
		}
		b.sub = nil
	}
	return nil
}

func (b *NATSBroker) Close() error {
	alreadyClosed, wasConsuming := b.beginClose()
	if alreadyClosed {
		return nil
	}
	if wasConsuming && b.sub != nil {
		if err := b.sub.Drain(); err != nil {
			log.Warnf("broker: drain subscription: %v", err)
		}
		b.sub = nil
	}
	b.conn.Close()
	return nil
}
