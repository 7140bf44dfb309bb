package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
)

func found(_ context.Context, _ *Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	return &entity.ExtractionResult{Department: constants.DeptCCS, Payload: doc.Text}, nil
}

func nothing(context.Context, *Env, *grid.Document) (*entity.ExtractionResult, error) {
	return nil, nil
}

func storedAs(id string) StoreFunc {
	return func(context.Context, *Env, *entity.ExtractionResult) (string, error) { return id, nil }
}

func allHandlers(h Handler) map[constants.Category]Handler {
	out := make(map[constants.Category]Handler)
	for _, c := range constants.AllCategories() {
		out[c] = h
	}
	return out
}

func TestNewRegistryRequiresEveryCategory(t *testing.T) {
	handlers := allHandlers(Handler{Extract: found, Store: storedAs("1")})
	delete(handlers, constants.Curriculum)
	handlers[constants.Grades] = Handler{Extract: found}

	_, err := NewRegistry(Env{}, handlers)
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "grades")
	assert.Contains(t, err.Error(), "curriculum")

	handlers = allHandlers(Handler{Extract: found, Store: storedAs("1")})
	handlers["payroll"] = Handler{Extract: found, Store: storedAs("1")}
	_, err = NewRegistry(Env{}, handlers)
	require.ErrorIs(t, err, common.ErrUnknownCategory)
}

func TestDispatchOutcomes(t *testing.T) {
	ctx := context.Background()
	d := &grid.Document{Filename: "sheet.xlsx", Text: "hello", ContentHash: "abc"}

	var got *entity.ExtractionResult
	capture := func(_ context.Context, _ *Env, res *entity.ExtractionResult) (string, error) {
		got = res
		return "rec-1", nil
	}

	cases := []struct {
		name     string
		category string
		handler  Handler
		want     constants.Outcome
		wantErr  error
	}{
		{"stored", "cor", Handler{Extract: found, Store: capture}, constants.OutcomeStored, nil},
		{"folder synonym", "COR", Handler{Extract: found, Store: capture}, constants.OutcomeStored, nil},
		{"unknown category", "payroll", Handler{Extract: found, Store: capture}, constants.OutcomeUnknownCategory, common.ErrUnknownCategory},
		{"nothing extracted", "cor", Handler{Extract: nothing, Store: capture}, constants.OutcomeNoExtractedData, nil},
		{"decode error", "cor", Handler{
			Extract: func(context.Context, *Env, *grid.Document) (*entity.ExtractionResult, error) {
				return nil, fmt.Errorf("%w: bad zip", common.ErrDecode)
			},
			Store: capture,
		}, constants.OutcomeDecodeFailed, common.ErrDecode},
		{"extract error", "cor", Handler{
			Extract: func(context.Context, *Env, *grid.Document) (*entity.ExtractionResult, error) {
				return nil, errors.New("boom")
			},
			Store: capture,
		}, constants.OutcomeNoExtractedData, nil},
		{"student missing", "grades", Handler{Extract: found, Store: func(context.Context, *Env, *entity.ExtractionResult) (string, error) {
			return "", fmt.Errorf("%w: student 1 is not in the directory", common.ErrDependencyMissing)
		}}, constants.OutcomeStudentNotFound, common.ErrDependencyMissing},
		{"store error", "cor", Handler{Extract: found, Store: func(context.Context, *Env, *entity.ExtractionResult) (string, error) {
			return "", common.ErrDatabase
		}}, constants.OutcomeStoreFailed, common.ErrDatabase},
		{"panic", "cor", Handler{Extract: func(context.Context, *Env, *grid.Document) (*entity.ExtractionResult, error) {
			panic("index out of range")
		}, Store: capture}, constants.OutcomeStoreFailed, common.ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = nil
			reg, err := NewRegistry(Env{}, allHandlers(tc.handler))
			require.NoError(t, err)

			res := reg.Dispatch(ctx, tc.category, d)
			assert.Equal(t, tc.want, res.Outcome)
			if tc.wantErr != nil {
				assert.ErrorIs(t, res.Err, tc.wantErr)
			}
			if tc.want == constants.OutcomeStored {
				assert.Equal(t, "rec-1", res.RecordID)
				assert.Equal(t, constants.COR, res.Category)
				require.NotNil(t, got)
				assert.Equal(t, constants.COR, got.Category)
				assert.Equal(t, "sheet.xlsx", got.SourceFile)
				assert.Equal(t, "abc", got.ContentHash)
			} else {
				assert.Empty(t, res.RecordID)
			}
		})
	}
}

func TestRegistryEnvDefaults(t *testing.T) {
	reg, err := NewRegistry(Env{}, allHandlers(Handler{Extract: nothing, Store: storedAs("")}))
	require.NoError(t, err)
	env := reg.Env()
	assert.NotNil(t, env.Logger)
	assert.NotNil(t, env.Classifier)
	assert.NotNil(t, env.Now)
}

func TestDispatchLogsDottedEvents(t *testing.T) {
	var buf bytes.Buffer
	env := Env{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	d := &grid.Document{Filename: "sheet.xlsx"}

	reg, err := NewRegistry(env, allHandlers(Handler{Extract: nothing, Store: storedAs("1")}))
	require.NoError(t, err)
	reg.Dispatch(context.Background(), "cor", d)
	reg.Dispatch(context.Background(), "payroll", d)
	assert.Contains(t, buf.String(), `"msg":"dispatch.extract.miss"`)
	assert.Contains(t, buf.String(), `"msg":"dispatch.category.unknown"`)

	buf.Reset()
	reg, err = NewRegistry(env, allHandlers(Handler{Extract: found, Store: storedAs("rec-9")}))
	require.NoError(t, err)
	reg.Dispatch(context.Background(), "cor", d)
	assert.Contains(t, buf.String(), `"msg":"dispatch.store.ok"`)
	assert.Contains(t, buf.String(), `"record_id":"rec-9"`)
}
