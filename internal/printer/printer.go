// Package printer delivers print jobs to the restaurant's printers.
package printer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

// RoutingKey is the topic a job is published under:
// print.<kind>.<channel>, so a print station can bind to the kitchen
// tickets or to the receipts of a single channel.
func RoutingKey(job receipt.Job) string {
	ch := strings.ReplaceAll(job.ChannelID, ".", "_")
	return fmt.Sprintf("print.%s.%s", job.Kind, ch)
}

var _ receipt.Printer = (*LogPrinter)(nil)

// LogPrinter writes jobs to the log. It is used when no print exchange is
// configured.
type LogPrinter struct {
	lg *zap.Logger
}

// NewLogPrinter returns a LogPrinter writing to lg.
func NewLogPrinter(lg *zap.Logger) *LogPrinter {
	return &LogPrinter{lg: lg}
}

func (p *LogPrinter) Print(_ context.Context, job receipt.Job) {
	p.lg.Info("Print job",
		zap.String("kind", string(job.Kind)),
		zap.String("channel", job.ChannelID),
		zap.Int("order", job.OrderNumber),
		zap.String("markup", job.Markup),
	)
}
