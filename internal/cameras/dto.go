package cameras

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/optional"
)

// CameraInput is the create and import payload.
type CameraInput struct {
	Name             *string             `json:"name" validate:"omitempty,max=200"`
	CameraIP         *string             `json:"cameraIP" validate:"omitempty,max=64"`
	Area             *string             `json:"area"`
	Location         *string             `json:"location"`
	NVRID            int64               `json:"nvrId" validate:"required,gt=0"`
	GroupID          int64               `json:"groupId" validate:"required,gt=0"`
	Brand            *string             `json:"brand"`
	Manufacture      *string             `json:"manufacture"`
	MacAddress       *string             `json:"macAddress" validate:"omitempty,max=32"`
	Port             *int                `json:"port" validate:"omitempty,min=0,max=65535"`
	ChannelID        *int                `json:"channelId" validate:"omitempty,min=0"`
	Latitude         decimal.NullDecimal `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude        decimal.NullDecimal `json:"longitude" validate:"omitempty,min=-180,max=180"`
	InstallationDate *time.Time          `json:"installationDate"`
	LastLive         *time.Time          `json:"lastLive"`
	RTSPURL          *string             `json:"rtspURL"`
	PinCode          *int                `json:"pinCode"`
	IsRecording      *bool               `json:"isRecording"`
	IsStreaming      *bool               `json:"isStreaming"`
	IsANPR           *bool               `json:"isANPR"`
	Status           *bool               `json:"status" validate:"required"`
	UpdateDate       *time.Time          `json:"updateDate"`
}

// ToCamera copies every field as given. Callers validate first, so Status is set.
func (in CameraInput) ToCamera() *data.Camera {
	c := &data.Camera{
		Name:             in.Name,
		CameraIP:         in.CameraIP,
		Area:             in.Area,
		Location:         in.Location,
		NVRID:            in.NVRID,
		GroupID:          in.GroupID,
		Brand:            in.Brand,
		Manufacture:      in.Manufacture,
		MacAddress:       in.MacAddress,
		Port:             in.Port,
		ChannelID:        in.ChannelID,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		InstallationDate: in.InstallationDate,
		LastLive:         in.LastLive,
		RTSPURL:          in.RTSPURL,
		PinCode:          in.PinCode,
		IsRecording:      in.IsRecording,
		IsStreaming:      in.IsStreaming,
		IsANPR:           in.IsANPR,
		Status:           true,
		UpdateDate:       in.UpdateDate,
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	return c
}

// CameraPatch is the partial update payload. Only fields set to a value
// overwrite; absent fields and explicit nulls leave the stored value alone.
type CameraPatch struct {
	ID               int64                           `json:"id"`
	Name             optional.Value[string]          `json:"name" validate:"omitempty,max=200"`
	CameraIP         optional.Value[string]          `json:"cameraIP" validate:"omitempty,max=64"`
	Area             optional.Value[string]          `json:"area"`
	Location         optional.Value[string]          `json:"location"`
	NVRID            optional.Value[int64]           `json:"nvrId" validate:"omitempty,gt=0"`
	GroupID          optional.Value[int64]           `json:"groupId" validate:"omitempty,gt=0"`
	Brand            optional.Value[string]          `json:"brand"`
	Manufacture      optional.Value[string]          `json:"manufacture"`
	MacAddress       optional.Value[string]          `json:"macAddress" validate:"omitempty,max=32"`
	Port             optional.Value[int]             `json:"port" validate:"omitempty,min=0,max=65535"`
	ChannelID        optional.Value[int]             `json:"channelId" validate:"omitempty,min=0"`
	Latitude         optional.Value[decimal.Decimal] `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude        optional.Value[decimal.Decimal] `json:"longitude" validate:"omitempty,min=-180,max=180"`
	InstallationDate optional.Value[time.Time]       `json:"installationDate"`
	RTSPURL          optional.Value[string]          `json:"rtspURL"`
	PinCode          optional.Value[int]             `json:"pinCode"`
	IsRecording      optional.Value[bool]            `json:"isRecording"`
	IsStreaming      optional.Value[bool]            `json:"isStreaming"`
	IsANPR           optional.Value[bool]            `json:"isANPR"`
	Status           optional.Value[bool]            `json:"status"`
}

// Apply overwrites the fields of c that the patch sets to a value.
func (p CameraPatch) Apply(c *data.Camera) {
	p.Name.ApplyPtr(&c.Name)
	p.CameraIP.ApplyPtr(&c.CameraIP)
	p.Area.ApplyPtr(&c.Area)
	p.Location.ApplyPtr(&c.Location)
	p.NVRID.Apply(&c.NVRID)
	p.GroupID.Apply(&c.GroupID)
	p.Brand.ApplyPtr(&c.Brand)
	p.Manufacture.ApplyPtr(&c.Manufacture)
	p.MacAddress.ApplyPtr(&c.MacAddress)
	p.Port.ApplyPtr(&c.Port)
	p.ChannelID.ApplyPtr(&c.ChannelID)
	if d, ok := p.Latitude.Get(); ok {
		c.Latitude = decimal.NewNullDecimal(d)
	}
	if d, ok := p.Longitude.Get(); ok {
		c.Longitude = decimal.NewNullDecimal(d)
	}
	p.InstallationDate.ApplyPtr(&c.InstallationDate)
	p.RTSPURL.ApplyPtr(&c.RTSPURL)
	p.PinCode.ApplyPtr(&c.PinCode)
	p.IsRecording.ApplyPtr(&c.IsRecording)
	p.IsStreaming.ApplyPtr(&c.IsStreaming)
	p.IsANPR.ApplyPtr(&c.IsANPR)
	p.Status.Apply(&c.Status)
}

// StatusUpdate is the body of update-status.
type StatusUpdate struct {
	ID     int64 `json:"id"`
	Status *bool `json:"status" validate:"required"`
}

// PageResult is the paginated listing envelope.
type PageResult struct {
	TotalCount int            `json:"TotalCount"`
	PageNumber int            `json:"PageNumber"`
	PageSize   int            `json:"PageSize"`
	Cameras    []*data.Camera `json:"Cameras"`
}

// Counts is the status report envelope.
type Counts struct {
	TotalCamera    int `json:"TotalCamera"`
	ActiveCamera   int `json:"ActiveCamera"`
	InActiveCamera int `json:"InActiveCamera"`
}
