package printer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/conejoswing/restoeasy/internal/domain/receipt"
)

func TestRoutingKey(t *testing.T) {
	tests := []struct {
		job  receipt.Job
		want string
	}{
		{receipt.Job{Kind: receipt.KindKitchenTicket, ChannelID: "7"}, "print.kitchen_ticket.7"},
		{receipt.Job{Kind: receipt.KindFinalReceipt, ChannelID: "delivery"}, "print.final_receipt.delivery"},
		{receipt.Job{Kind: receipt.KindCustomerCopy, ChannelID: "bar.1"}, "print.customer_copy.bar_1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoutingKey(tt.job))
	}
}

func TestLogPrinter(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogPrinter(zap.New(core))

	p.Print(context.Background(), receipt.Job{
		Kind:        receipt.KindKitchenTicket,
		ChannelID:   "7",
		OrderNumber: 12,
		Markup:      "1x Completo",
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "kitchen_ticket", fields["kind"])
	assert.Equal(t, "7", fields["channel"])
	assert.EqualValues(t, 12, fields["order"])
	assert.Equal(t, "1x Completo", fields["markup"])
}
