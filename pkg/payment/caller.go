package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type initiateRequest struct {
	ctx      context.Context
	draft    Draft
	customer models.Customer
}

type initiateResponse struct {
	result Result
	err    error
}

// gatewayActor owns the gateway and serves one payment request at a time.
type gatewayActor struct {
	gateway Gateway
	logger  *zap.Logger
}

func (a *gatewayActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *initiateRequest:
		a.logger.Debug("Initiating payment",
			zap.Int64("order_id", msg.draft.OrderID),
			zap.Int("total", msg.draft.Total))

		result, err := a.gateway.Initiate(msg.ctx, msg.draft, msg.customer)
		ctx.Respond(&initiateResponse{result: result, err: err})

	case *actor.Started:
		a.logger.Info("Payment actor started")

	case *actor.Stopped:
		a.logger.Info("Payment actor stopped")
	}
}

// Caller runs a Gateway inside an actor and bounds every call with a
// timeout. It satisfies Gateway itself.
type Caller struct {
	system  *actor.ActorSystem
	pid     *actor.PID
	timeout time.Duration
	logger  *zap.Logger

	stopOnce sync.Once
}

func NewCaller(gateway Gateway, timeout time.Duration, logger *zap.Logger) (*Caller, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("payment-caller")

	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &gatewayActor{gateway: gateway, logger: logger}
	})
	pid, err := system.Root.SpawnNamed(props, "payment-gateway")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn payment actor: %w", err)
	}

	return &Caller{system: system, pid: pid, timeout: timeout, logger: logger}, nil
}

// Initiate forwards the request to the gateway actor. It gives up with
// ErrTimeout once the configured timeout or the context deadline passes,
// whichever is sooner.
func (c *Caller) Initiate(ctx context.Context, draft Draft, customer models.Customer) (Result, error) {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return Result{}, ErrTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	future := c.system.Root.RequestFuture(c.pid, &initiateRequest{
		ctx:      callCtx,
		draft:    draft,
		customer: customer,
	}, timeout)

	res, err := future.Result()
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) {
			c.logger.Warn("Payment request timed out",
				zap.Int64("order_id", draft.OrderID),
				zap.Duration("timeout", timeout))
			return Result{}, ErrTimeout
		}
		return Result{}, fmt.Errorf("failed to reach payment gateway: %w", err)
	}

	resp, ok := res.(*initiateResponse)
	if !ok {
		return Result{}, fmt.Errorf("unexpected payment response %T", res)
	}
	if resp.err != nil {
		if errors.Is(resp.err, context.DeadlineExceeded) {
			return Result{}, ErrTimeout
		}
		return Result{}, resp.err
	}
	return resp.result, nil
}

// Stop stops the gateway actor and shuts its actor system down. Calling it
// again is a no-op.
func (c *Caller) Stop() {
	c.stopOnce.Do(func() {
		c.system.Root.Stop(c.pid)
		c.system.Shutdown()
		c.logger.Info("Payment caller stopped")
	})
}
