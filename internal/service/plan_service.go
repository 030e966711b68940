package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dimasfahmi/studyplan-api/internal/dto"
	"github.com/dimasfahmi/studyplan-api/internal/models"
	"github.com/dimasfahmi/studyplan-api/internal/schedule"
	appErrors "github.com/dimasfahmi/studyplan-api/pkg/errors"
	"github.com/dimasfahmi/studyplan-api/pkg/export"
)

type planRepository interface {
	List(ctx context.Context) ([]models.StoredPlan, error)
	FindByID(ctx context.Context, id string) (*models.StoredPlan, error)
	Create(ctx context.Context, plan *models.StoredPlan) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type planCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const plansCacheKey = "plans:list"

// PlanServiceConfig governs staging and caching behaviour.
type PlanServiceConfig struct {
	PendingTTL    time.Duration
	StaleWindow   time.Duration
	ListCacheTTL  time.Duration
	ExportEnabled bool
}

// PlanService orchestrates plan generation: AI attempt, deterministic
// fallback, conflict detection against stored plans, and the
// overwrite/regenerate/cancel resolution flow.
type PlanService struct {
	repo      planRepository
	cache     planCache
	generator PlanGenerator
	detector  *schedule.Detector
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	pending   *pendingStore
	cfg       PlanServiceConfig

	pdf *export.PDFExporter
	csv *export.CSVExporter
}

// NewPlanService wires the plan pipeline. The generator and cache may be nil;
// a nil generator sends every request straight to the fallback synthesizer.
func NewPlanService(
	repo planRepository,
	cache planCache,
	generator PlanGenerator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlanServiceConfig,
) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 30 * time.Minute
	}
	if cfg.ListCacheTTL <= 0 {
		cfg.ListCacheTTL = 5 * time.Minute
	}
	return &PlanService{
		repo:      repo,
		cache:     cache,
		generator: generator,
		detector:  schedule.NewDetector(cfg.StaleWindow),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		pending:   newPendingStore(cfg.PendingTTL),
		cfg:       cfg,
		pdf:       export.NewPDFExporter(),
		csv:       export.NewCSVExporter(),
	}
}

// Generate runs the full pipeline. The optional progress callback receives
// stage names; the streaming endpoint forwards them as SSE frames.
func (s *PlanService) Generate(ctx context.Context, req dto.GeneratePlanRequest, progress func(stage string)) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan generation payload")
	}
	notify := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	stored := s.listStored(ctx)
	coreReq := req.ScheduleRequest()

	notify("generating")
	genCtx := WithRetryNotify(ctx, func(attempt int, err error) {
		notify("retrying")
	})
	plan, source := s.generatePlan(genCtx, coreReq, stored)
	s.metrics.IncPlanGenerated(source)

	notify("checking_conflicts")
	conflicts := s.detector.Detect(plan, stored, "")
	if len(conflicts) > 0 {
		s.metrics.AddConflictsDetected(len(conflicts))
		pendingID := s.pending.Save(pendingPlan{Plan: *plan, Request: req, Conflicts: conflicts})
		return &dto.GeneratePlanResponse{
			Source:           source,
			Conflicts:        conflicts,
			PendingID:        pendingID,
			RequiresDecision: true,
		}, nil
	}

	notify("saving")
	record, err := s.savePlan(ctx, planName(req), plan)
	if err != nil {
		return nil, err
	}
	return &dto.GeneratePlanResponse{Plan: record, Source: source}, nil
}

// generatePlan tries the AI generator first and falls back to the
// deterministic synthesizer on any failure. The fallback boundary is the
// generator's error return, nothing else.
func (s *PlanService) generatePlan(ctx context.Context, coreReq schedule.Request, stored []models.StoredPlan) (*models.StudyPlan, string) {
	if s.generator != nil {
		scheduleContext := buildScheduleContext(s.detector.ExistingSlots(stored, ""))
		plan, err := s.generator.GeneratePlan(ctx, coreReq, scheduleContext)
		if err == nil {
			return plan, "ai"
		}
		s.logger.Warn("ai generation failed, using fallback synthesizer", zap.Error(err))
	}
	return schedule.Synthesize(coreReq, nil), "fallback"
}

// Resolve settles a staged plan by user choice: overwrite saves it as-is,
// regenerate replaces it with a constrained synthesis over the currently free
// slots, cancel discards it.
func (s *PlanService) Resolve(ctx context.Context, req dto.ResolvePlanRequest) (*dto.ResolvePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolve payload")
	}
	staged, ok := s.pending.Get(req.PendingID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "pending plan not found or expired")
	}

	switch req.Action {
	case dto.ResolveCancel:
		s.pending.Delete(req.PendingID)
		return &dto.ResolvePlanResponse{Status: "cancelled"}, nil

	case dto.ResolveOverwrite:
		record, err := s.savePlan(ctx, planName(staged.Request), &staged.Plan)
		if err != nil {
			return nil, err
		}
		s.pending.Delete(req.PendingID)
		return &dto.ResolvePlanResponse{Status: "saved", Plan: record}, nil

	case dto.ResolveRegenerate:
		stored := s.listStored(ctx)
		free := schedule.AvailableSlots(s.detector.ExistingSlots(stored, ""))
		plan := schedule.Synthesize(staged.Request.ScheduleRequest(), free)
		s.metrics.IncPlanGenerated("fallback")
		record, err := s.savePlan(ctx, planName(staged.Request), plan)
		if err != nil {
			return nil, err
		}
		s.pending.Delete(req.PendingID)
		return &dto.ResolvePlanResponse{Status: "saved", Plan: record}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "action must be overwrite, regenerate or cancel")
}

// List returns stored plans, newest first, through the cache when available.
func (s *PlanService) List(ctx context.Context) ([]models.StoredPlan, error) {
	if s.cache != nil {
		var cached []models.StoredPlan
		if err := s.cache.Get(ctx, plansCacheKey, &cached); err == nil {
			s.metrics.IncCacheHit()
			return cached, nil
		}
		s.metrics.IncCacheMiss()
	}

	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plans")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, plansCacheKey, plans, s.cfg.ListCacheTTL); err != nil {
			s.logger.Warn("failed to cache plan list", zap.Error(err))
		}
	}
	return plans, nil
}

// Get returns a single stored plan.
func (s *PlanService) Get(ctx context.Context, id string) (*models.StoredPlan, error) {
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plan id is required")
	}
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes a stored plan.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "plan id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// UpdateStatus changes a plan's lifecycle state. Completed and inactive plans
// drop out of conflict detection.
func (s *PlanService) UpdateStatus(ctx context.Context, id string, req dto.UpdatePlanStatusRequest) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "plan id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// CheckConflicts vets an arbitrary plan document against stored plans.
func (s *PlanService) CheckConflicts(ctx context.Context, req dto.CheckConflictsRequest) ([]schedule.Conflict, error) {
	stored := s.listStored(ctx)
	conflicts := s.detector.Detect(&req.Plan, stored, req.ExcludePlanID)
	if len(conflicts) > 0 {
		s.metrics.AddConflictsDetected(len(conflicts))
	}
	return conflicts, nil
}

// AvailableSlots returns the free portion of the canonical slot catalogue
// given current commitments.
func (s *PlanService) AvailableSlots(ctx context.Context) ([]schedule.AvailableSlot, error) {
	stored := s.listStored(ctx)
	return schedule.AvailableSlots(s.detector.ExistingSlots(stored, "")), nil
}

// Export renders a stored plan as PDF or CSV.
func (s *PlanService) Export(ctx context.Context, id, format string) ([]byte, string, string, error) {
	if !s.cfg.ExportEnabled {
		return nil, "", "", appErrors.Clone(appErrors.ErrPreconditionFailed, "plan export is disabled")
	}
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}

	data := planDataset(plan)
	base := exportFilename(plan.Name)
	subtitle := "Saved " + plan.CreatedAt.Format("2 Jan 2006")

	switch format {
	case "pdf":
		payload, err := s.pdf.Render(data, plan.Name, subtitle)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", base + ".pdf", nil
	case "csv":
		payload, err := s.csv.Render(data, plan.Name, subtitle)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", base + ".csv", nil
	}
	return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be pdf or csv")
}

// listStored reads the conflict universe. A storage read failure degrades to
// "no existing plans" rather than failing the generation flow.
func (s *PlanService) listStored(ctx context.Context) []models.StoredPlan {
	plans, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Warn("failed to read stored plans, treating as empty", zap.Error(err))
		return nil
	}
	return plans
}

func (s *PlanService) savePlan(ctx context.Context, name string, plan *models.StudyPlan) (*models.StoredPlan, error) {
	now := time.Now().UTC()
	record := &models.StoredPlan{
		ID:        uuid.NewString(),
		Name:      name,
		Plan:      *plan,
		Status:    models.PlanStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save plan")
	}
	s.invalidateCache(ctx)
	return record, nil
}

func (s *PlanService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "plans:*"); err != nil {
		s.logger.Warn("failed to invalidate plan cache", zap.Error(err))
	}
}

func planName(req dto.GeneratePlanRequest) string {
	if req.PlanName != "" {
		return req.PlanName
	}
	return fmt.Sprintf("%s study plan", strings.Join(req.Subjects, ", "))
}

// buildScheduleContext renders the occupied commitments as a text block the
// AI provider is asked to schedule around.
func buildScheduleContext(existing []schedule.TimeSlot) string {
	if len(existing) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("The student already has these commitments; do not schedule anything that overlaps them:\n")
	for _, slot := range existing {
		fmt.Fprintf(&b, "- %s %s: %s\n", slot.Day, slot.RawRange, slot.Subject)
	}
	return b.String()
}

func planDataset(plan *models.StoredPlan) export.Dataset {
	data := export.Dataset{Headers: []string{"Day", "Subject", "Time", "Hours", "Focus", "Priority"}}
	sessions := plan.Plan.Sessions
	if len(sessions) == 0 {
		for _, day := range schedule.Weekdays {
			for _, subject := range plan.Plan.WeeklySchedule[day].Subjects {
				sessions = append(sessions, models.Session{
					Day:      day,
					Subject:  subject.Subject,
					Duration: subject.Duration,
					TimeSlot: subject.TimeSlot,
					Focus:    subject.Focus,
					Priority: subject.Priority,
				})
			}
		}
	}
	for _, session := range sessions {
		data.Rows = append(data.Rows, map[string]string{
			"Day":      session.Day,
			"Subject":  session.Subject,
			"Time":     session.TimeSlot,
			"Hours":    fmt.Sprintf("%.2f", session.Duration),
			"Focus":    session.Focus,
			"Priority": session.Priority,
		})
	}
	return data
}

func exportFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, name)
	if cleaned == "" {
		cleaned = "study-plan"
	}
	return strings.ToLower(cleaned)
}

// --- Pending plan staging ---

type pendingPlan struct {
	ID        string
	Plan      models.StudyPlan
	Request   dto.GeneratePlanRequest
	Conflicts []schedule.Conflict
	StagedAt  time.Time
}

type pendingStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]pendingPlan
}

func newPendingStore(ttl time.Duration) *pendingStore {
	return &pendingStore{
		ttl:   ttl,
		items: make(map[string]pendingPlan),
	}
}

func (s *pendingStore) Save(plan pendingPlan) string {
	plan.ID = uuid.NewString()
	plan.StagedAt = time.Now().UTC()
	s.mu.Lock()
	s.items[plan.ID] = plan
	s.mu.Unlock()
	return plan.ID
}

func (s *pendingStore) Get(id string) (pendingPlan, bool) {
	s.mu.RLock()
	plan, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return pendingPlan{}, false
	}
	if time.Since(plan.StagedAt) > s.ttl {
		s.Delete(id)
		return pendingPlan{}, false
	}
	return plan, true
}

func (s *pendingStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
