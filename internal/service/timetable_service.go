package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-api/internal/dto"
	"github.com/noah-isme/sma-adp-api/internal/engine"
	"github.com/noah-isme/sma-adp-api/internal/models"
	appErrors "github.com/noah-isme/sma-adp-api/pkg/errors"
	"github.com/noah-isme/sma-adp-api/pkg/jobs"
)

type subjectCatalog interface {
	ListByDepartment(ctx context.Context, department string) ([]models.Subject, error)
}

type facultyPreferenceCatalog interface {
	ListByDepartment(ctx context.Context, department string) ([]models.FacultyPreference, error)
}

type timetableRepository interface {
	CommitVersioned(ctx context.Context, exec sqlx.ExtContext, version *models.TimetableVersion, entries []models.TimetableEntry) error
	ListByDepartmentSemester(ctx context.Context, filter models.TimetableFilter) ([]models.TimetableVersionSummary, error)
	FindByID(ctx context.Context, id string) (*models.TimetableVersion, error)
	EntriesByVersion(ctx context.Context, versionID string) ([]models.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
}

type timetableTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	PreviewTTL               time.Duration
	DefaultMaxSessionsPerDay int
}

// ScheduleGeneratorService runs the timetable generation engine over a
// department's subjects and faculty preferences, caches previews, and
// commits violation-free previews as persisted timetable versions.
type ScheduleGeneratorService struct {
	subjects  subjectCatalog
	prefs     facultyPreferenceCatalog
	versions  timetableRepository
	tx        timetableTxProvider
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	previews  *previewStore

	defaultMaxSessionsPerDay int

	genLocksMu sync.Mutex
	genLocks   map[string]*sync.Mutex
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	subjects subjectCatalog,
	prefs facultyPreferenceCatalog,
	versions timetableRepository,
	tx timetableTxProvider,
	queue *jobs.Queue,
	previewCache *redis.Client,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 30 * time.Minute
	}
	if cfg.DefaultMaxSessionsPerDay <= 0 {
		cfg.DefaultMaxSessionsPerDay = engine.DefaultMaxPerDay
	}
	return &ScheduleGeneratorService{
		subjects:                 subjects,
		prefs:                    prefs,
		versions:                 versions,
		tx:                       tx,
		queue:                    queue,
		validator:                validate,
		logger:                   logger,
		metrics:                  metrics,
		previews:                 newPreviewStore(previewCache, cfg.PreviewTTL),
		defaultMaxSessionsPerDay: cfg.DefaultMaxSessionsPerDay,
		genLocks:                 make(map[string]*sync.Mutex),
	}
}

// SetQueue attaches the background job queue after construction, breaking
// the construction-order cycle between the service (whose HandleAsyncJob
// method the queue's handler wraps) and the queue itself.
func (s *ScheduleGeneratorService) SetQueue(queue *jobs.Queue) {
	s.queue = queue
}

// Generate runs the weighted or backtracking pipeline synchronously and
// caches the result as an uncommitted preview.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerationRequest) (*dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	subjects, prefs, err := buildEngineInputs(req)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = "weighted"
	}
	maxPerDay := req.MaxSessionsPerDay
	if maxPerDay <= 0 {
		maxPerDay = s.defaultMaxSessionsPerDay
	}

	unlock := s.lockGeneration(req.Department, req.Semester)
	defer unlock()

	start := time.Now()
	cfg := engine.Config{MaxSessionsPerDay: maxPerDay, DesiredFreePeriods: req.DesiredFreePeriods, FacultyPreferences: prefs}
	rng := engine.NewProductionRand()

	var result engine.Result
	switch mode {
	case "backtracking":
		result = engine.GenerateBacktracking(subjects, cfg, rng)
	default:
		mode = "weighted"
		result = engine.GenerateWeighted(subjects, cfg, rng)
	}
	s.observeGeneration(mode, time.Since(start), len(result.Warnings))

	for _, w := range result.Warnings {
		s.logger.Sugar().Warnw("timetable generation warning", "department", req.Department, "semester", req.Semester, "mode", mode, "warning", string(w))
	}

	payload := previewPayload{
		Department:         req.Department,
		Semester:           req.Semester,
		Mode:               mode,
		DesiredFreePeriods: result.DesiredFreePeriods,
		MaxSessionsPerDay:  maxPerDay,
		Entries:            toGenerationEntries(result.Entries),
		Warnings:           warningsToStrings(result.Warnings),
		Violations:         violationsToStrings(result.Violations),
		CreatedAt:          start,
	}
	previewID := uuid.NewString()
	if err := s.previews.Save(ctx, previewID, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cache generation preview")
	}

	return &dto.GenerationResponse{
		PreviewID:          previewID,
		Mode:               mode,
		DesiredFreePeriods: result.DesiredFreePeriods,
		Entries:            payload.Entries,
		Warnings:           payload.Warnings,
		Violations:         payload.Violations,
	}, nil
}

// GenerateAsync submits a backtracking generation onto the job queue and
// returns immediately with a job id to poll via GetAsyncResult.
func (s *ScheduleGeneratorService) GenerateAsync(ctx context.Context, req dto.GenerationRequest) (*dto.AsyncGenerationResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "background job queue unavailable")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}
	if _, _, err := buildEngineInputs(req); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "timetable.generate", Payload: req}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}
	return &dto.AsyncGenerationResponse{JobID: jobID}, nil
}

// HandleAsyncJob is the pkg/jobs.Handler wired to the generation queue: it
// runs the synchronous pipeline and stores the result under the job id so
// callers can retrieve it with GetAsyncResult.
func (s *ScheduleGeneratorService) HandleAsyncJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerationRequest)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	resp, err := s.Generate(ctx, req)
	if err != nil {
		return err
	}
	return s.previews.SaveJobResult(ctx, job.ID, *resp)
}

// GetAsyncResult retrieves a completed asynchronous generation result.
func (s *ScheduleGeneratorService) GetAsyncResult(ctx context.Context, jobID string) (*dto.GenerationResponse, bool, error) {
	resp, ok := s.previews.GetJobResult(ctx, jobID)
	if !ok {
		return nil, false, nil
	}
	return &resp, true, nil
}

// Commit persists a previously generated preview as the new committed
// timetable version for its department/semester, archiving any prior
// committed version, in one transaction.
func (s *ScheduleGeneratorService) Commit(ctx context.Context, req dto.CommitRequest) (*dto.CommitResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid commit request")
	}
	payload, ok := s.previews.Get(ctx, req.PreviewID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found or expired")
	}
	if len(payload.Violations) > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "preview contains unresolved constraint violations")
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	version := &models.TimetableVersion{
		Department:         payload.Department,
		Semester:           payload.Semester,
		Mode:               payload.Mode,
		Status:             models.TimetableStatusCommitted,
		DesiredFreePeriods: payload.DesiredFreePeriods,
		MaxSessionsPerDay:  payload.MaxSessionsPerDay,
	}
	entries := make([]models.TimetableEntry, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		entries = append(entries, models.TimetableEntry{Day: e.Day, SessionNumber: e.SessionNumber, Subject: e.Subject})
	}

	if err = s.versions.CommitVersioned(ctx, tx, version, entries); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable version")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return nil, err
	}

	s.previews.Delete(ctx, req.PreviewID)
	return &dto.CommitResponse{TimetableVersionID: version.ID, Version: version.Version}, nil
}

// List returns stored timetable version summaries for a department/semester.
func (s *ScheduleGeneratorService) List(ctx context.Context, query dto.TimetableQuery) ([]models.TimetableVersionSummary, error) {
	if query.Department == "" || query.Semester == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department and semester are required")
	}
	list, err := s.versions.ListByDepartmentSemester(ctx, models.TimetableFilter{Department: query.Department, Semester: query.Semester})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	return list, nil
}

// Get returns the header and the 55 stored rows for a timetable version.
func (s *ScheduleGeneratorService) Get(ctx context.Context, id string) (*models.TimetableVersion, []models.TimetableEntry, error) {
	version, err := s.versions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "timetable version not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable version")
	}
	entries, err := s.versions.EntriesByVersion(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	return version, entries, nil
}

// Validate re-runs the constraint validator against a stored timetable version,
// rebuilding the grid from its persisted entries and subject catalog.
func (s *ScheduleGeneratorService) Validate(ctx context.Context, id string, repair bool) (*dto.ValidateResponse, error) {
	version, entries, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	catalog, err := s.subjects.ListByDepartment(ctx, version.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject catalog")
	}
	subjects := modelSubjectsToEngine(catalog)

	grid := rebuildGrid(entries, subjects)
	valid, violations := engine.Validate(grid, subjects, version.DesiredFreePeriods, version.MaxSessionsPerDay)
	resp := &dto.ValidateResponse{Valid: valid, Violations: violationsToStrings(violations)}

	if !valid && repair {
		demand := engine.BuildDemand(subjects)
		_, _, fixed := engine.ValidateAndRepair(grid, subjects, demand, version.DesiredFreePeriods, version.MaxSessionsPerDay, engine.NewProductionRand())
		if fixed != nil {
			resp.Repaired = true
		}
	}
	return resp, nil
}

func (s *ScheduleGeneratorService) observeGeneration(mode string, duration time.Duration, warningCount int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveGeneration(mode, duration, warningCount)
}

func (s *ScheduleGeneratorService) lockGeneration(department, semester string) func() {
	key := department + "|" + semester
	s.genLocksMu.Lock()
	mu, ok := s.genLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.genLocks[key] = mu
	}
	s.genLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// --- conversion helpers ---

func buildEngineInputs(req dto.GenerationRequest) ([]engine.Subject, []engine.FacultyPreference, error) {
	subjects := make([]engine.Subject, 0, len(req.Subjects))
	for _, si := range req.Subjects {
		subjects = append(subjects, engine.Subject{
			Code:             si.Code,
			Name:             si.Name,
			Faculty:          si.Faculty,
			AlternateFaculty: si.AlternateFaculty,
			HoursPerWeek:     si.HoursPerWeek,
			LabRequired:      si.LabRequired,
			Department:       si.Department,
		})
	}

	prefs := make([]engine.FacultyPreference, 0, len(req.FacultyPreferences))
	for _, fp := range req.FacultyPreferences {
		for _, t := range fp.PreferredTime {
			if !isCanonicalTimeSlot(t) {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("preferredTime %q is not a canonical time slot", t))
			}
		}
		days := make([]engine.Day, 0, len(fp.PreferredDays))
		for _, d := range fp.PreferredDays {
			day, ok := parseDay(d)
			if !ok {
				return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("preferredDays %q is not a canonical weekday", d))
			}
			days = append(days, day)
		}
		prefs = append(prefs, engine.FacultyPreference{Faculty: fp.Faculty, PreferredDays: days, PreferredTime: fp.PreferredTime})
	}
	return subjects, prefs, nil
}

func isCanonicalTimeSlot(label string) bool {
	for _, slot := range engine.CanonicalTimeSlots {
		if slot == label {
			return true
		}
	}
	return false
}

func parseDay(name string) (engine.Day, bool) {
	for _, d := range engine.Days {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}

func modelSubjectsToEngine(rows []models.Subject) []engine.Subject {
	subjects := make([]engine.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, engine.Subject{
			Code:             r.Code,
			Name:             r.Name,
			Faculty:          r.Faculty,
			AlternateFaculty: r.AlternateFaculty,
			HoursPerWeek:     r.HoursPerWeek,
			LabRequired:      r.LabRequired,
			Department:       r.Department,
		})
	}
	return subjects
}

func toGenerationEntries(entries []engine.TimetableEntry) []dto.GenerationEntry {
	out := make([]dto.GenerationEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.GenerationEntry{Day: e.Day.String(), SessionNumber: e.SessionNumber, Subject: e.Subject})
	}
	return out
}

func warningsToStrings(warnings []engine.Warning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, string(w))
	}
	return out
}

func violationsToStrings(violations []engine.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, string(v))
	}
	return out
}

// rebuildGrid reconstructs a *engine.Grid from persisted entries, matching
// labels back to subject codes via Subject.Label/LabLabel. Entries that
// match no known label or subject fall back to the additional-class marker.
// Break slots are left as NewGrid builds them; "Free Period" entries become
// free cells.
func rebuildGrid(entries []models.TimetableEntry, subjects []engine.Subject) *engine.Grid {
	grid := engine.NewGrid()
	theoryCode := make(map[string]string, len(subjects))
	labCode := make(map[string]string, len(subjects))
	for _, s := range subjects {
		theoryCode[s.Label()] = s.Code
		labCode[s.LabLabel()] = s.Code
	}

	for _, entry := range entries {
		day, ok := parseDay(entry.Day)
		if !ok {
			continue
		}
		row := grid.Cells[day]
		idx := entry.SessionNumber - 1
		if idx < 0 || idx >= len(row) || row[idx].IsBreak() {
			continue
		}
		row[idx] = cellForLabel(entry.Subject, theoryCode, labCode)
	}
	return grid
}

func cellForLabel(label string, theoryCode, labCode map[string]string) engine.Cell {
	switch {
	case label == engine.FreePeriodLabel:
		return engine.NewFreeCell()
	case labCode[label] != "":
		return engine.NewLabCell(labCode[label])
	case theoryCode[label] != "":
		return engine.NewSubjectCell(theoryCode[label])
	default:
		return engine.NewFallbackCell()
	}
}

// --- preview cache ---

type previewPayload struct {
	Department         string                `json:"department"`
	Semester           string                `json:"semester"`
	Mode               string                `json:"mode"`
	DesiredFreePeriods int                   `json:"desiredFreePeriods"`
	MaxSessionsPerDay  int                   `json:"maxSessionsPerDay"`
	Entries            []dto.GenerationEntry `json:"entries"`
	Warnings           []string              `json:"warnings"`
	Violations         []string              `json:"violations"`
	CreatedAt          time.Time             `json:"createdAt"`
}

type previewStore struct {
	ttl    time.Duration
	redis  *redis.Client
	mu     sync.RWMutex
	memory map[string]previewPayload

	jobsMu  sync.RWMutex
	jobsMap map[string]dto.GenerationResponse
}

func newPreviewStore(client *redis.Client, ttl time.Duration) *previewStore {
	return &previewStore{
		ttl:     ttl,
		redis:   client,
		memory:  make(map[string]previewPayload),
		jobsMap: make(map[string]dto.GenerationResponse),
	}
}

func (s *previewStore) Save(ctx context.Context, id string, payload previewPayload) error {
	if s.redis != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		return s.redis.Set(ctx, previewKey(id), data, s.ttl).Err()
	}
	s.mu.Lock()
	s.memory[id] = payload
	s.mu.Unlock()
	return nil
}

func (s *previewStore) Get(ctx context.Context, id string) (previewPayload, bool) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, previewKey(id)).Bytes()
		if err != nil {
			return previewPayload{}, false
		}
		var payload previewPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return previewPayload{}, false
		}
		return payload, true
	}
	s.mu.RLock()
	payload, ok := s.memory[id]
	s.mu.RUnlock()
	if ok && time.Since(payload.CreatedAt) > s.ttl {
		return previewPayload{}, false
	}
	return payload, ok
}

func (s *previewStore) Delete(ctx context.Context, id string) {
	if s.redis != nil {
		s.redis.Del(ctx, previewKey(id))
		return
	}
	s.mu.Lock()
	delete(s.memory, id)
	s.mu.Unlock()
}

func (s *previewStore) SaveJobResult(ctx context.Context, jobID string, resp dto.GenerationResponse) error {
	if s.redis != nil {
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return s.redis.Set(ctx, jobKey(jobID), data, s.ttl).Err()
	}
	s.jobsMu.Lock()
	s.jobsMap[jobID] = resp
	s.jobsMu.Unlock()
	return nil
}

func (s *previewStore) GetJobResult(ctx context.Context, jobID string) (dto.GenerationResponse, bool) {
	if s.redis != nil {
		data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
		if err != nil {
			return dto.GenerationResponse{}, false
		}
		var resp dto.GenerationResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return dto.GenerationResponse{}, false
		}
		return resp, true
	}
	s.jobsMu.RLock()
	resp, ok := s.jobsMap[jobID]
	s.jobsMu.RUnlock()
	return resp, ok
}

func previewKey(id string) string { return "timetable:preview:" + id }
func jobKey(id string) string     { return "timetable:job:" + id }
