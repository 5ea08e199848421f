package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

func listItems[T controller.Item](h *Handler, r *controller.Resource[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		items, err := r.Load(c.Request().Context(), scope(c))
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
	}
}

func createItem[T controller.Item](h *Handler, r *controller.Resource[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromEcho(c)

		var item T
		if err := (&echo.DefaultBinder{}).BindBody(c, &item); err != nil {
			log.Warn("Failed to parse request", zap.String("kind", r.Kind()), zap.Error(err))
			return h.respondError(c, err)
		}

		created, items, err := r.Create(c.Request().Context(), scope(c), item)
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(http.StatusCreated, echo.Map{"data": created, "items": nonNil(items)})
	}
}

func updateItem[T controller.Item](h *Handler, r *controller.Resource[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		patch, err := bindPatch(c)
		if err != nil {
			return h.respondError(c, err)
		}
		updated, items, err := r.Update(c.Request().Context(), scope(c), c.Param("id"), patch)
		if err != nil {
			return h.respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"data": updated, "items": nonNil(items)})
	}
}

func deleteItem[T controller.Item](h *Handler, r *controller.Resource[T]) echo.HandlerFunc {
	return func(c echo.Context) error {
		confirm := queryConfirmer(c)
		items, err := r.Delete(c.Request().Context(), scope(c), c.Param("id"), confirm)
		if err != nil {
			return h.respondErrorWith(c, err, confirm.extra())
		}
		return c.JSON(http.StatusOK, echo.Map{"items": nonNil(items)})
	}
}

// bindPatch reads the request body as a partial record. Numbers stay
// json.Number so integers of any size reach the store unchanged.
func bindPatch(c echo.Context) (store.Record, error) {
	patch := store.Record{}
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&patch); err != nil && err != io.EOF {
		logger.FromEcho(c).Warn("Failed to parse patch", zap.Error(err))
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return patch, nil
}

// confirmation answers delete prompts from the confirm query parameter
// and keeps the prompt for the 428 response.
type confirmation struct {
	approved bool
	prompt   string
}

func queryConfirmer(c echo.Context) *confirmation {
	return &confirmation{approved: c.QueryParam("confirm") == "true"}
}

func (q *confirmation) Confirm(_ context.Context, prompt string) bool {
	q.prompt = prompt
	return q.approved
}

func (q *confirmation) extra() echo.Map {
	if q.prompt == "" || q.approved {
		return nil
	}
	return echo.Map{"prompt": q.prompt}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
