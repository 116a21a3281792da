package jobs

import (
	"context"

	"github.com/hublens/hublens-backend/usecases"
)

// OffloadPayloads runs one deferred-offload pass over processed events still
// carrying an inline payload. A no-op when offloading is disabled.
func OffloadPayloads(ctx context.Context, usecases usecases.Usecases) error {
	usecase := usecases.NewOffloadingUsecase()

	_, err := usecase.OffloadPayloads(ctx)
	return err
}
