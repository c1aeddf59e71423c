package cameras

import (
	"context"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/optional"
	"github.com/technosupport/vms-inventory/internal/paging"
	"github.com/technosupport/vms-inventory/internal/validate"
)

// Per-camera records: analytics alerts, operator activities and vehicle tracking.

type AlertRepository interface {
	Create(ctx context.Context, a *data.CameraAlert) error
	SetStatus(ctx context.Context, id int64, status bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.CameraAlert, error)
	ListByCamera(ctx context.Context, cameraID int64) ([]*data.CameraAlert, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, a *data.CameraActivity) error
	GetByID(ctx context.Context, id int64) (*data.CameraActivity, error)
	Update(ctx context.Context, a *data.CameraActivity) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*data.CameraActivity, error)
}

type TrackingRepository interface {
	Create(ctx context.Context, t *data.CameraTrackingData) error
	Delete(ctx context.Context, id int64) error
	Page(ctx context.Context, limit, offset int) ([]*data.CameraTrackingData, int, error)
	ListByCamera(ctx context.Context, cameraID int64) ([]*data.CameraTrackingData, error)
}

type AlertInput struct {
	CameraID    int64   `json:"cameraId" validate:"required,gt=0"`
	FramePath   *string `json:"framePath"`
	ObjectName  *string `json:"objectName"`
	ObjectCount *int    `json:"objectCount" validate:"omitempty,min=0"`
	AlertStatus *string `json:"alertStatus" validate:"omitempty,len=1"`
	Status      *bool   `json:"status"`
}

type ActivityInput struct {
	CameraID int64  `json:"cameraId" validate:"required,gt=0"`
	UserID   *int64 `json:"userId" validate:"omitempty,gt=0"`
	Activity string `json:"activity" validate:"required,max=500"`
	Status   *bool  `json:"status"`
}

type ActivityPatch struct {
	ID       int64                  `json:"id"`
	CameraID optional.Value[int64]  `json:"cameraId" validate:"omitempty,gt=0"`
	Activity optional.Value[string] `json:"activity" validate:"omitempty,max=500"`
	Status   optional.Value[bool]   `json:"status"`
}

type TrackingInput struct {
	CameraID     int64   `json:"cameraId" validate:"required,gt=0"`
	VehicleImage *string `json:"vehicleImage"`
	NoPlateImage *string `json:"noPlateImage"`
	VehicleNo    *string `json:"vehicleNo" validate:"omitempty,max=32"`
	Status       *bool   `json:"status"`
}

type TrackingPage struct {
	TotalCount int                        `json:"TotalCount"`
	PageNumber int                        `json:"PageNumber"`
	PageSize   int                        `json:"PageSize"`
	Items      []*data.CameraTrackingData `json:"Items"`
}

type RecordService struct {
	alerts     AlertRepository
	activities ActivityRepository
	tracking   TrackingRepository
	opts       Options
}

func NewRecordService(alerts AlertRepository, activities ActivityRepository, tracking TrackingRepository, opts Options) *RecordService {
	return &RecordService{alerts: alerts, activities: activities, tracking: tracking, opts: opts}
}

func statusOrDefault(p *bool) bool {
	if p == nil {
		return true
	}
	return *p
}

func (s *RecordService) ListAlerts(ctx context.Context) ([]*data.CameraAlert, error) {
	list, err := s.alerts.List(ctx)
	return list, apperr.FromStorage("alert list", err)
}

func (s *RecordService) AlertsForCamera(ctx context.Context, cameraID int64) ([]*data.CameraAlert, error) {
	list, err := s.alerts.ListByCamera(ctx, cameraID)
	return list, apperr.FromStorage("alert list", err)
}

func (s *RecordService) CreateAlert(ctx context.Context, in AlertInput) (*data.CameraAlert, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a := &data.CameraAlert{
		CameraID:    in.CameraID,
		FramePath:   in.FramePath,
		ObjectName:  in.ObjectName,
		ObjectCount: in.ObjectCount,
		AlertStatus: in.AlertStatus,
		Status:      statusOrDefault(in.Status),
	}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, apperr.FromStorage("alert create", err)
	}
	return a, nil
}

func (s *RecordService) UpdateAlertStatus(ctx context.Context, su StatusUpdate) error {
	if su.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(su); err != nil {
		return err
	}
	return apperr.ForID("alert", su.ID, "alert status update", s.alerts.SetStatus(ctx, su.ID, *su.Status))
}

func (s *RecordService) DeleteAlert(ctx context.Context, id int64) error {
	return apperr.ForID("alert", id, "alert delete", s.alerts.Delete(ctx, id))
}

func (s *RecordService) ListActivities(ctx context.Context) ([]*data.CameraActivity, error) {
	list, err := s.activities.List(ctx)
	return list, apperr.FromStorage("activity list", err)
}

// CreateActivity records an activity. actorID fills UserID when the payload omits it.
func (s *RecordService) CreateActivity(ctx context.Context, in ActivityInput, actorID int64) (*data.CameraActivity, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	a := &data.CameraActivity{
		CameraID: in.CameraID,
		UserID:   in.UserID,
		Activity: in.Activity,
		Status:   statusOrDefault(in.Status),
	}
	if a.UserID == nil && actorID > 0 {
		a.UserID = &actorID
	}
	if err := s.activities.Create(ctx, a); err != nil {
		return nil, apperr.FromStorage("activity create", err)
	}
	return a, nil
}

func (s *RecordService) UpdateActivity(ctx context.Context, p ActivityPatch) error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	if err := validate.Struct(p); err != nil {
		return err
	}
	a, err := s.activities.GetByID(ctx, p.ID)
	if err != nil {
		return apperr.ForID("activity", p.ID, "activity get", err)
	}
	p.CameraID.Apply(&a.CameraID)
	p.Activity.Apply(&a.Activity)
	p.Status.Apply(&a.Status)
	return apperr.FromStorage("activity update", s.activities.Update(ctx, a))
}

func (s *RecordService) DeleteActivity(ctx context.Context, id int64) error {
	return apperr.ForID("activity", id, "activity delete", s.activities.Delete(ctx, id))
}

func (s *RecordService) PageTracking(ctx context.Context, pageNumber, pageSize int) (*TrackingPage, error) {
	p, err := paging.New(pageNumber, pageSize, s.opts.MaxPageSize)
	if err != nil {
		return nil, err
	}
	items, total, err := s.tracking.Page(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.FromStorage("tracking page", err)
	}
	return &TrackingPage{TotalCount: total, PageNumber: p.Number, PageSize: p.Size, Items: items}, nil
}

func (s *RecordService) TrackingForCamera(ctx context.Context, cameraID int64) ([]*data.CameraTrackingData, error) {
	list, err := s.tracking.ListByCamera(ctx, cameraID)
	return list, apperr.FromStorage("tracking list", err)
}

func (s *RecordService) CreateTracking(ctx context.Context, in TrackingInput) (*data.CameraTrackingData, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	t := &data.CameraTrackingData{
		CameraID:     in.CameraID,
		VehicleImage: in.VehicleImage,
		NoPlateImage: in.NoPlateImage,
		VehicleNo:    in.VehicleNo,
		Status:       statusOrDefault(in.Status),
	}
	if err := s.tracking.Create(ctx, t); err != nil {
		return nil, apperr.FromStorage("tracking create", err)
	}
	return t, nil
}

func (s *RecordService) DeleteTracking(ctx context.Context, id int64) error {
	return apperr.ForID("tracking record", id, "tracking delete", s.tracking.Delete(ctx, id))
}
