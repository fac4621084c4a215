//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"anonchat/domain"
	"context"
	"reflect"
)

// Transport is the outbound side of the external messaging platform.
// Implementations must honor the context deadline; a stuck recipient must not
// stall the caller beyond it.
type Transport interface {
	Send(ctx context.Context, to domain.UserHandle, msg domain.Message) error
	LookupDisplayInfo(ctx context.Context, h domain.UserHandle) (domain.DisplayInfo, error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
