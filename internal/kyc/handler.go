package kyc

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/emandor/kyc_service/internal/config"
	"github.com/emandor/kyc_service/internal/middleware"
	"github.com/emandor/kyc_service/internal/model"
	"github.com/emandor/kyc_service/internal/telemetry"
	"github.com/emandor/kyc_service/internal/ws"
)

const (
	FieldFront  = "id_card"
	FieldBack   = "id_card_back"
	FieldSelfie = "selfie"
)

var errNoFile = errors.New("kyc: form file missing")

type Handler struct {
	cfg      *config.Config
	pipeline *Pipeline
	store    Store
}

func NewHandler(cfg *config.Config, p *Pipeline, store Store) *Handler {
	return &Handler{cfg: cfg, pipeline: p, store: store}
}

// VerifyResponse is the decision artifact plus the request id it was filed under.
type VerifyResponse struct {
	RequestID string `json:"request_id"`
	Decision
}

func (h *Handler) Verify(c *fiber.Ctx) error {
	rid := middleware.RequestIDFrom(c)
	log := telemetry.L().With().Str("req_id", rid).Logger()

	var in Input
	var err error
	if in.DocumentFront, err = formImage(c, FieldFront); err != nil || len(in.DocumentFront) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": FieldFront + " required"})
	}
	if in.Selfie, err = formImage(c, FieldSelfie); err != nil || len(in.Selfie) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": FieldSelfie + " required"})
	}
	if in.DocumentBack, err = formImage(c, FieldBack); err != nil && !errors.Is(err, errNoFile) {
		log.Warn().Err(err).Msg("kyc_back_unreadable")
	}

	d := h.pipeline.Run(c.UserContext(), in)

	rec := model.KYCRecord{
		RequestID:  rid,
		Name:       d.OCRData.Name,
		IDNumber:   d.OCRData.IDNumber,
		MatchScore: d.FaceMatch.Confidence,
		Decision:   d.FinalDecision,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.store.Save(c.UserContext(), rec); err != nil {
		log.Error().Err(err).Msg("kyc_record_save_failed")
	} else {
		log.Info().Bool("approved", d.Approved()).Msg("kyc_record_saved")
	}

	ws.BroadcastDecision(ws.DecisionSummary{
		RequestID:     rid,
		FinalDecision: d.FinalDecision,
		MatchScore:    d.FaceMatch.Confidence,
		District:      d.RegionalRisk.District,
		RiskLevel:     d.RiskAssessment.RiskLevel,
	})

	return c.JSON(VerifyResponse{RequestID: rid, Decision: d})
}

func (h *Handler) History(c *fiber.Ctx) error {
	rows, err := h.store.History(c.UserContext(), h.cfg.HistoryLimit)
	if err != nil {
		log := telemetry.L()
		log.Error().Err(err).Msg("kyc_history_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "db fail"})
	}
	return c.JSON(rows)
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	st, err := h.store.Stats(c.UserContext())
	if err != nil {
		log := telemetry.L()
		log.Error().Err(err).Msg("kyc_stats_failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "db fail"})
	}
	return c.JSON(st)
}

// formImage reads one uploaded file into memory.
func formImage(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, errNoFile
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
