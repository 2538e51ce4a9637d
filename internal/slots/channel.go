package slots

import (
	"context"
	"errors"
	"fmt"

	"zenort/pkg/channel"
	"zenort/pkg/engine"
	"zenort/pkg/utils/coerce"
	"zenort/pkg/value"
)

func RegisterChannelSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: channel.make
	// ==========================================
	eng.Register("channel.make", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		capacity := 0
		v := mainValue(eng, node, ec)
		if c, ok := attrValue(eng, node, ec, "capacity"); ok {
			v = c
		}
		if !v.IsNil() {
			n, err := coerce.ToInt(v.Native())
			if err != nil {
				return typeError("channel.make", "integer capacity", v)
			}
			capacity = n
		}

		tx, rx, err := channel.New(capacity)
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "sender", "sender"), value.NewHandle(tx))
		ec.Set(targetName(node, "receiver", "receiver"), value.NewHandle(rx))
		return nil
	}, engine.SlotMeta{
		Description: "Create a channel. Capacity 0 is unbounded; n > 0 makes send wait while n values are queued.",
		Example:     "channel.make: 1 {\n  sender: $tx\n  receiver: $rx\n}",
		Inputs: map[string]engine.InputMeta{
			"capacity": {Description: "Queue bound, when not given as the main value", Type: "int"},
			"sender":   {Description: "Variable to store the sending end (Default: sender)"},
			"receiver": {Description: "Variable to store the receiving end (Default: receiver)"},
		},
	})

	// ==========================================
	// SLOT: channel.send / channel.try_send
	// ==========================================
	eng.Register("channel.send", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		tx, err := senderHandle("channel.send", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		v, _ := attrValue(eng, node, ec, "val", "value")
		return tx.Send(ctx, v)
	}, engine.SlotMeta{
		Description: "Send a copy of a value. Waits while a bounded channel is full; raises ChannelClosed once closed.",
		Example:     "channel.send: $tx {\n  val: $item\n}",
		Inputs: map[string]engine.InputMeta{
			"val":   {Description: "Value to send"},
			"value": {Description: "Alias for val"},
		},
	})

	eng.Register("channel.try_send", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		tx, err := senderHandle("channel.try_send", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		v, _ := attrValue(eng, node, ec, "val", "value")
		ec.Set(targetName(node, "as", "sent"), value.NewBool(tx.TrySend(v)))
		return nil
	}, engine.SlotMeta{
		Description: "Send without waiting. as is false when the channel is full or closed.",
		Example:     "channel.try_send: $tx {\n  val: 1\n  as: $ok\n}",
		Inputs: map[string]engine.InputMeta{
			"val":   {Description: "Value to send"},
			"value": {Description: "Alias for val"},
			"as":    {Description: "Variable to store the flag (Default: sent)"},
		},
	})

	// ==========================================
	// SLOT: channel.close / channel.is_closed
	// ==========================================
	eng.Register("channel.close", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		end, err := channelEnd("channel.close", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		end.Close()
		return nil
	}, engine.SlotMeta{
		Description: "Close a channel from either end. Closing twice is harmless.",
		Example:     "channel.close: $tx",
	})

	eng.Register("channel.is_closed", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		end, err := channelEnd("channel.is_closed", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		ec.Set(targetName(node, "as", "is_closed"), value.NewBool(end.IsClosed()))
		return nil
	}, engine.SlotMeta{
		Description: "Whether the channel has been closed.",
		Example:     "channel.is_closed: $rx {\n  as: $closed\n}",
		Inputs: map[string]engine.InputMeta{
			"as": {Description: "Variable to store the flag (Default: is_closed)"},
		},
	})

	// ==========================================
	// SLOT: channel.recv family
	// ==========================================
	recvInputs := map[string]engine.InputMeta{
		"as":     {Description: "Variable to store the value (Default: message)"},
		"status": {Description: "Variable to store ok/closed/timeout/empty (Default: status)"},
	}

	eng.Register("channel.recv", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		rx, err := receiverHandle("channel.recv", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		v, err := rx.Recv(ctx)
		return setReceived(node, ec, v, err)
	}, engine.SlotMeta{
		Description: "Wait for the next value. status is closed once the channel is closed and drained.",
		Example:     "channel.recv: $rx {\n  as: $msg\n  status: $st\n}",
		Inputs:      recvInputs,
	})

	eng.Register("channel.recv_timeout", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		rx, err := receiverHandle("channel.recv_timeout", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		tv, _ := attrValue(eng, node, ec, "timeout")
		d, err := coerce.ToDuration(tv.Native())
		if err != nil {
			return fmt.Errorf("channel.recv_timeout: %w", err)
		}
		v, err := rx.RecvTimeout(ctx, d)
		return setReceived(node, ec, v, err)
	}, engine.SlotMeta{
		Description: "Receive with a time limit. status tells timeout apart from closed.",
		Example:     "channel.recv_timeout: $rx {\n  timeout: 100ms\n  as: $msg\n  status: $st\n}",
		Inputs: map[string]engine.InputMeta{
			"timeout": {Description: "Duration (\"100ms\") or milliseconds", Required: true},
			"as":      recvInputs["as"],
			"status":  recvInputs["status"],
		},
	})

	eng.Register("channel.try_recv", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		rx, err := receiverHandle("channel.try_recv", engine.ResolveRaw(node.Value, ec))
		if err != nil {
			return err
		}
		v, err := rx.TryRecv()
		return setReceived(node, ec, v, err)
	}, engine.SlotMeta{
		Description: "Receive without waiting. status is empty when nothing is queued.",
		Example:     "channel.try_recv: $rx {\n  as: $msg\n  status: $st\n}",
		Inputs:      recvInputs,
	})
}

// setReceived binds a receive outcome. Closed, timeout and empty are
// reported through status; any other error is raised.
func setReceived(node *engine.Node, ec *engine.ExecutionContext, v value.Value, err error) error {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, channel.ErrClosed):
		status = "closed"
	case errors.Is(err, channel.ErrTimeout):
		status = "timeout"
	case errors.Is(err, channel.ErrEmpty):
		status = "empty"
	default:
		return err
	}
	if err != nil {
		v = value.NewNil()
	}
	ec.Set(targetName(node, "as", "message"), v)
	ec.Set(targetName(node, "status", "status"), value.NewString(status))
	return nil
}
