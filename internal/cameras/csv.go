package cameras

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/technosupport/vms-inventory/internal/data"
)

const CSVFileName = "cameras.csv"

var csvHeader = []string{
	"Id", "Name", "CameraIP", "Area", "Location", "NVRId", "GroupId", "Brand", "Manufacture",
	"MacAddress", "Port", "ChannelId", "Latitude", "Longitude", "InstallationDate", "LastLive",
	"RTSPURL", "PinCode", "IsRecording", "IsStreaming", "IsANPR", "Status", "UpdateDate", "RegDate",
}

// ExportCSV writes every camera, one row each, under a header of field names.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	cams, err := s.ExportAll(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, cams)
}

func WriteCSV(w io.Writer, cams []*data.Camera) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range cams {
		if err := cw.Write(csvRecord(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(c *data.Camera) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		str(c.Name),
		str(c.CameraIP),
		str(c.Area),
		str(c.Location),
		strconv.FormatInt(c.NVRID, 10),
		strconv.FormatInt(c.GroupID, 10),
		str(c.Brand),
		str(c.Manufacture),
		str(c.MacAddress),
		num(c.Port),
		num(c.ChannelID),
		dec(c.Latitude),
		dec(c.Longitude),
		ts(c.InstallationDate),
		ts(c.LastLive),
		str(c.RTSPURL),
		num(c.PinCode),
		flag(c.IsRecording),
		flag(c.IsStreaming),
		flag(c.IsANPR),
		strconv.FormatBool(c.Status),
		ts(c.UpdateDate),
		c.RegDate.UTC().Format(time.RFC3339),
	}
}

// Absent values are written as empty cells.

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func flag(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func dec(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func ts(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.UTC().Format(time.RFC3339)
}
