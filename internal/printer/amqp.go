package printer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

// DefaultPublishTimeout bounds a single publish including the broker confirm.
const DefaultPublishTimeout = 5 * time.Second

var _ receipt.Printer = (*AMQPPrinter)(nil)

// AMQPPrinter publishes jobs to a RabbitMQ topic exchange consumed by the
// print stations. Failures are logged, never returned.
type AMQPPrinter struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
	lg       *zap.Logger
}

// DialAMQP connects to url and declares the durable topic exchange.
func DialAMQP(url, exchange string, lg *zap.Logger) (*AMQPPrinter, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "enable confirms")
	}

	return &AMQPPrinter{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		timeout:  DefaultPublishTimeout,
		lg:       lg,
	}, nil
}

// Ping reports whether the connection is open.
func (p *AMQPPrinter) Ping() error {
	if p.conn.IsClosed() {
		return errors.New("amqp connection closed")
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQPPrinter) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

// Print publishes job. The publish outlives request cancellation but not
// the publish timeout.
func (p *AMQPPrinter) Print(ctx context.Context, job receipt.Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.publish(ctx, job); err != nil {
		p.lg.Error("Print job failed",
			zap.Error(err),
			zap.String("kind", string(job.Kind)),
			zap.String("channel", job.ChannelID),
			zap.Int("order", job.OrderNumber),
		)
	}
}

func (p *AMQPPrinter) publish(ctx context.Context, job receipt.Job) error {
	dc, err := p.send(ctx, job)
	if err != nil {
		return err
	}
	ack, err := dc.WaitContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "wait confirm of delivery %d", dc.DeliveryTag)
	}
	if !ack {
		return errors.Errorf("nack from broker for delivery %d", dc.DeliveryTag)
	}
	return nil
}

// send publishes job and returns the confirmation bound to its delivery tag.
func (p *AMQPPrinter) send(ctx context.Context, job receipt.Job) (*amqp.DeferredConfirmation, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return nil, errors.Wrap(err, "encode job")
	}

	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, RoutingKey(job), false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		Timestamp:     time.Now().UTC(),
		CorrelationId: strconv.Itoa(job.OrderNumber),
		Type:          string(job.Kind),
		Body:          body,
	})
	if err != nil {
		return nil, errors.Wrap(err, "publish")
	}
	return dc, nil
}
