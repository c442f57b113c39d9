package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/ai"
	"github.com/studyhuddle/backend/services/docparse"
)

type aiApi struct {
	svc      ai.ServiceInterface
	validate *validator.Validate
}

// registerAIAPI exposes the AI proxy on its legacy unauthenticated paths.
func registerAIAPI(g *echo.Group, svc ai.ServiceInterface, validate *validator.Validate) {
	api := aiApi{svc: svc, validate: validate}

	ag := g.Group("/ai")
	ag.POST("/summarize", api.generate)
	ag.POST("/flashcards", api.flashcards)
	ag.POST("/chat", api.chat)
	ag.POST("/process-file", api.processFile)
}

// Handlers

func (api *aiApi) generate(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	out, err := api.svc.Generate(ctx.Request().Context(), data.Text, data.Mode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AIResponse{Success: true, Data: out})
}

func (api *aiApi) flashcards(ctx echo.Context) error {
	var data GenerateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cards, err := api.svc.GenerateFlashcards(ctx.Request().Context(), data.Text)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AIResponse{Success: true, Data: cards})
}

func (api *aiApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	out, err := api.svc.Chat(ctx.Request().Context(), data.Message)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AIResponse{Success: true, Data: out})
}

// processFile extracts text from an uploaded document and runs it through the
// requested AI mode.
func (api *aiApi) processFile(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("no file uploaded"))
	}

	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	text, err := docparse.Extract(fh.Filename, raw)
	if err != nil {
		switch errors.Cause(err) {
		case docparse.ErrUnsupportedType, docparse.ErrNoText:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "extracting document text")
	}

	out, err := api.svc.Generate(ctx.Request().Context(), text, ctx.FormValue("mode"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, AIResponse{Success: true, Data: out})
}

type (
	GenerateRequest struct {
		Text string `json:"text" validate:"required"`
		Mode string `json:"mode"`
	}

	ChatRequest struct {
		Message string `json:"message" validate:"required"`
	}

	AIResponse struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}
)

func (gr *GenerateRequest) Validate(validate *validator.Validate) error {
	gr.Mode = core.CleanString(gr.Mode, true /* lower */)
	return validate.Struct(gr)
}

func (cr *ChatRequest) Validate(validate *validator.Validate) error {
	cr.Message = core.CleanString(cr.Message)
	return validate.Struct(cr)
}
