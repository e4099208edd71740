package observability

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobplus/internal/config"
	"github.com/jonathan/jobplus/internal/geo"
	"github.com/jonathan/jobplus/internal/types"
)

func TestPrintBox_FixedWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "short\n"+strings.Repeat("♥", 80))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	cfg := config.Defaults()
	lat, lon := 1.5, 2.5
	cfg.DeviceLatitude, cfg.DeviceLongitude = &lat, &lon

	p.PrintConfig(&cfg)
	output := buf.String()

	assert.Contains(t, output, "CONFIGURATION")
	assert.Contains(t, output, config.DefaultBackendURL)
	assert.Contains(t, output, "30s")
	assert.Contains(t, output, "1.5000,2.5000")
}

func TestPrintConfig_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintConfig(nil)
	assert.Empty(t, buf.String())
}

func TestPrintSession(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSession(&types.Session{UserID: "u1", FullName: "A B"})
	assert.Contains(t, buf.String(), "SESSION")
	assert.Contains(t, buf.String(), "u1")
	assert.Contains(t, buf.String(), "A B")

	buf.Reset()
	p.PrintSession(nil)
	assert.Empty(t, buf.String())
}

func TestPrintLocation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLocation(geo.Result{
		Coordinates: types.DefaultCoordinates,
		Source:      geo.SourcePrevious,
		Err:         errors.New("ip lookup returned no location"),
	})
	output := buf.String()

	assert.Contains(t, output, "LOCATION")
	assert.Contains(t, output, "previous")
	assert.Contains(t, output, "37.38,-122.08")
	assert.Contains(t, output, "no location")
}

func TestPrintItems(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	items := make([]types.JobItem, 7)
	for i := range items {
		items[i] = types.JobItem{ItemID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("Job %d", i)}
	}
	items[0].Favorite = true
	items[0].Keywords = []string{"go", "grpc"}
	items[0].Address = `"1 Main St, Springfield"`

	p.PrintItems("nearby jobs", items)
	output := buf.String()

	assert.Contains(t, output, "NEARBY JOBS")
	assert.Contains(t, output, "Total items: 7")
	assert.Contains(t, output, "♥ id-0  Job 0")
	assert.Contains(t, output, "go, grpc")
	assert.Contains(t, output, "1 Main St, Springfield")
	assert.NotContains(t, output, `"1 Main`)
	assert.Contains(t, output, "Job 4")
	assert.NotContains(t, output, "Job 5")
	assert.Contains(t, output, "... and 2 more items")
}

func TestPrintItems_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintItems("favorites", nil)
	assert.Empty(t, buf.String())
}

func TestPrintFavoriteChange(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFavoriteChange(types.JobItem{ItemID: "7", Name: "SRE", Favorite: true}, nil)
	assert.Contains(t, buf.String(), "added")

	buf.Reset()
	p.PrintFavoriteChange(types.JobItem{ItemID: "7", Name: "SRE"}, nil)
	assert.Contains(t, buf.String(), "removed")

	buf.Reset()
	p.PrintFavoriteChange(types.JobItem{ItemID: "7", Name: "SRE"}, errors.New("refused"))
	assert.Contains(t, buf.String(), "unchanged: refused")
}
