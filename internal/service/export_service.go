package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shuankun/shuankun-api/internal/dto"
	"github.com/shuankun/shuankun-api/internal/models"
	"github.com/shuankun/shuankun-api/pkg/export"
	"github.com/shuankun/shuankun-api/pkg/storage"
)

var dayLabels = map[int]string{1: "月", 2: "火", 3: "水", 4: "木", 5: "金", 6: "土"}

var (
	weeklyPlanHeaders  = []string{"曜日", "時限", "教科", "学年", "組", "時数", "メモ"}
	hoursReportHeaders = []string{"教科", "年間標準時数", "計画時数", "実績時数", "差異", "年度末予測", "状況", "月あたり追加時数"}
)

var varianceLabels = map[models.VarianceStatus]string{
	models.VarianceOnTrack:  "順調",
	models.VarianceWarning:  "注意",
	models.VarianceCritical: "要対応",
}

type exportPlanSource interface {
	GetByID(ctx context.Context, userID, id string) (*models.WeeklyPlanWithCells, error)
}

type exportHoursSource interface {
	Report(ctx context.Context, query HoursReportQuery) (*models.HoursReport, bool, error)
}

type exportSubjectSource interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, int64, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService builds weekly plan and hours report datasets and persists rendered files.
type ExportService struct {
	plans    exportPlanSource
	hours    exportHoursSource
	subjects exportSubjectSource
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
	now      func() time.Time
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(plans exportPlanSource, hours exportHoursSource, subjects exportSubjectSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ExportService{
		plans:    plans,
		hours:    hours,
		subjects: subjects,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate builds the dataset for job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, part, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job, part), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export rendered",
		zap.String("job_id", job.ID),
		zap.String("path", relPath),
		zap.Int("bytes", len(payload)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file and its size.
func (s *ExportService) Open(relPath string) (*os.File, int64, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob, part string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), sanitizeFilename(part), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, string, error) {
	switch job.Type {
	case models.ExportTypeWeeklyPlan:
		return s.buildWeeklyPlanDataset(ctx, job)
	case models.ExportTypeHoursReport:
		return s.buildHoursReportDataset(ctx, job)
	default:
		return export.Dataset{}, "", "", fmt.Errorf("unsupported export type %s", job.Type)
	}
}

func (s *ExportService) buildWeeklyPlanDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, string, error) {
	plan, err := s.plans.GetByID(ctx, job.CreatedBy, job.Params.WeeklyPlanID)
	if err != nil {
		return export.Dataset{}, "", "", err
	}
	names, err := s.subjectNames(ctx)
	if err != nil {
		return export.Dataset{}, "", "", err
	}

	rows := make([]map[string]string, 0, len(plan.Cells))
	for _, cell := range plan.Cells {
		subject := names[cell.SubjectID]
		if subject == "" {
			subject = cell.SubjectID
		}
		rows = append(rows, map[string]string{
			"曜日": dayLabels[cell.Day],
			"時限": strconv.Itoa(cell.Period),
			"教科": subject,
			"学年": optionalInt(cell.Grade),
			"組":  optionalInt(cell.ClassNumber),
			"時数": formatHours(cell.Hours),
			"メモ": cell.Memo,
		})
	}

	weekStart := plan.WeekStartDate.Format(dto.DateLayout)
	title := fmt.Sprintf("週案 %s〜%s", weekStart, plan.WeekEndDate.Format(dto.DateLayout))
	return export.Dataset{Headers: weeklyPlanHeaders, Rows: rows}, title, weekStart, nil
}

func (s *ExportService) buildHoursReportDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, string, error) {
	report, _, err := s.hours.Report(ctx, HoursReportQuery{
		UserID:       job.CreatedBy,
		Grade:        job.Params.Grade,
		AcademicYear: job.Params.AcademicYear,
		Month:        job.Params.AsOfMonth,
	})
	if err != nil {
		return export.Dataset{}, "", "", err
	}
	if len(report.Errors) > 0 {
		return export.Dataset{}, "", "", fmt.Errorf("hours report incomplete: %d subjects failed", len(report.Errors))
	}

	rows := make([]map[string]string, 0, len(report.Subjects))
	for _, subject := range report.Subjects {
		additional := ""
		if subject.Alert != nil {
			additional = strconv.Itoa(subject.Alert.AdditionalHoursNeeded)
		}
		rows = append(rows, map[string]string{
			"教科":       subject.SubjectName,
			"年間標準時数":   strconv.Itoa(subject.AnnualPlanned),
			"計画時数":     strconv.Itoa(subject.CurrentPlanned),
			"実績時数":     formatHours(subject.CumulativeActual),
			"差異":       formatHours(subject.Variance),
			"年度末予測":    strconv.Itoa(subject.EndOfYearPrediction),
			"状況":       varianceLabels[subject.Status],
			"月あたり追加時数": additional,
		})
	}

	title := fmt.Sprintf("授業時数レポート %d年 %d年度 %d月時点", report.Grade, report.AcademicYear, report.Month)
	part := fmt.Sprintf("g%d_%d_%02d", report.Grade, report.AcademicYear, report.Month)
	return export.Dataset{Headers: hoursReportHeaders, Rows: rows}, title, part, nil
}

func (s *ExportService) subjectNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if s.subjects == nil {
		return names, nil
	}
	subjects, err := s.subjects.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}
	return names, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
