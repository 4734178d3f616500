package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/infrastructure/buffer"
	"github.com/fastygo/journal/usecase"
)

type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfileUpdate(ctx context.Context, editorID int64, patch domain.ProfilePatch) error {
	if b.processor == nil || editorID <= 0 || patch.IsEmpty() {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	item := buffer.Item{
		EditorID:  editorID,
		Entity:    buffer.EntityEditorProfile,
		Operation: buffer.OperationUpdate,
		Data:      payload,
		Priority:  3,
	}
	return b.processor.BufferOperation(ctx, item)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
