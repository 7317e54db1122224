package jsonrpcinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/application"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

type handlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// Dispatcher routes requests to the application service.
type Dispatcher struct {
	svc      *application.Service
	handlers map[rpcmodel.Method]handlerFunc
}

func NewDispatcher(svc *application.Service) *Dispatcher {
	d := &Dispatcher{svc: svc}
	d.handlers = make(map[rpcmodel.Method]handlerFunc)
	for _, m := range rpcmodel.Methods() {
		d.handlers[m] = d.route(m)
	}
	return d
}

// Dispatch serves the given request. The returned flag is true if the
// request asked for the server to stop, in which case the response must be
// delivered before shutting down.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, bool) {
	method, err := rpcmodel.ParseMethod(req.Method)
	if err != nil {
		return errorResponse(req.ID, &Error{
			Code:    CodeMethodNotFound,
			Message: unimplementedMessage,
			Data:    UnimplementedData{Method: req.Method},
		}), false
	}

	result, err := d.handlers[method](ctx, req.Params)
	if err != nil {
		var paramsErr *Error
		if errors.As(err, &paramsErr) {
			return errorResponse(req.ID, paramsErr), false
		}
		if application.KindOf(err) == application.KindStop {
			log.Info("received stop request")
			return resultResponse(req.ID, rpcmodel.Empty{}), true
		}

		log.WithError(err).Debugf("method %s failed", method)
		return errorResponse(req.ID, toRPCError(err)), false
	}
	return resultResponse(req.ID, result), false
}

func (d *Dispatcher) route(m rpcmodel.Method) handlerFunc {
	switch m {
	case rpcmodel.MethodSchema:
		return handle(d.svc.Schema)
	case rpcmodel.MethodGenerateSigner:
		return handle(d.svc.GenerateSigner)
	case rpcmodel.MethodVersion:
		return handle(d.svc.Version)
	case rpcmodel.MethodLoadWallet:
		return handle(d.svc.LoadWallet)
	case rpcmodel.MethodUnloadWallet:
		return handle(d.svc.UnloadWallet)
	case rpcmodel.MethodListWallets:
		return handle(d.svc.ListWallets)
	case rpcmodel.MethodLoadSigner:
		return handle(d.svc.LoadSigner)
	case rpcmodel.MethodUnloadSigner:
		return handle(d.svc.UnloadSigner)
	case rpcmodel.MethodListSigners:
		return handle(d.svc.ListSigners)
	case rpcmodel.MethodAddress:
		return handle(d.svc.Address)
	case rpcmodel.MethodBalance:
		return handle(d.svc.Balance)
	case rpcmodel.MethodSendMany:
		return handle(d.svc.SendMany)
	case rpcmodel.MethodSinglesigDescriptor:
		return handle(d.svc.SinglesigDescriptor)
	case rpcmodel.MethodMultisigDescriptor:
		return handle(d.svc.MultisigDescriptor)
	case rpcmodel.MethodXpub:
		return handle(d.svc.Xpub)
	case rpcmodel.MethodSign:
		return handle(d.svc.Sign)
	case rpcmodel.MethodBroadcast:
		return handle(d.svc.Broadcast)
	case rpcmodel.MethodWalletDetails:
		return handle(d.svc.WalletDetails)
	case rpcmodel.MethodWalletCombine:
		return handle(d.svc.WalletCombine)
	case rpcmodel.MethodWalletPsetDetails:
		return handle(d.svc.WalletPsetDetails)
	case rpcmodel.MethodIssue:
		return handle(d.svc.Issue)
	case rpcmodel.MethodContract:
		return handle(d.svc.Contract)
	case rpcmodel.MethodAssetDetails:
		return handle(d.svc.AssetDetails)
	case rpcmodel.MethodStop:
		return handle(d.svc.Stop)
	default:
		panic(fmt.Sprintf("no handler for method %s", m))
	}
}

// handle adapts a typed service method to a handlerFunc.
func handle[Req, Res any](
	fn func(context.Context, Req) (*Res, error),
) handlerFunc {
	return func(ctx context.Context, params json.RawMessage) (interface{}, error) {
		req, err := decodeParams[Req](params)
		if err != nil {
			return nil, &Error{
				Code:    CodeInvalidParams,
				Message: fmt.Sprintf("invalid params: %s", err),
			}
		}
		res, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return res, nil
	}
}

func toRPCError(err error) *Error {
	code := CodeUpstream
	switch application.KindOf(err) {
	case application.KindParameter:
		code = CodeInvalidParams
	case application.KindNotFound:
		code = CodeNotFound
	case application.KindConflict:
		code = CodeConflict
	case application.KindLifecycle:
		code = CodeLifecycle
	}
	return &Error{Code: code, Message: err.Error()}
}
