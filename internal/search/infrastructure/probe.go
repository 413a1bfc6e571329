package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mateusmacedo/go-railwatch/internal/search/domain"
	"github.com/mateusmacedo/go-railwatch/pkg/application"
)

const (
	rowClassMarker  = "sch-table__row"
	timeClassMarker = "train-from-time"
	sellingAttr     = `data-ticket_selling_allowed="`
	errorPageMarker = "error_content"

	probeUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxScheduleBody = 2 << 20
)

// RailProbe checks availability by fetching the public schedule page and
// scanning the row whose departure time matches the request. The page marks
// sellable departures with a data-ticket_selling_allowed attribute on the row.
type RailProbe struct {
	baseURL string
	client  *http.Client
	logger  application.AppLogger
}

func NewRailProbe(baseURL string, logger application.AppLogger) *RailProbe {
	return &RailProbe{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

func (p *RailProbe) Check(ctx context.Context, request domain.SearchRequest) (domain.AvailabilityResult, error) {
	target := fmt.Sprintf("%s/route/?from=%s&to=%s&date=%s",
		p.baseURL,
		url.QueryEscape(request.Origin),
		url.QueryEscape(request.Destination),
		url.QueryEscape(request.TravelDate),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.AvailabilityResult{}, &domain.TransientError{Op: "schedule request", Err: err}
	}
	req.Header.Set("User-Agent", probeUserAgent)
	req.Header.Set("Accept-Language", "ru,en;q=0.9")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.AvailabilityResult{}, &domain.TransientError{Op: "schedule fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AvailabilityResult{}, &domain.TransientError{
			Op:  "schedule fetch",
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScheduleBody))
	if err != nil {
		return domain.AvailabilityResult{}, &domain.TransientError{Op: "schedule read", Err: err}
	}

	page := string(body)
	if strings.Contains(page, errorPageMarker) {
		return domain.AvailabilityResult{}, &domain.TransientError{
			Op:  "route lookup",
			Err: errors.New("schedule page reported an error for the route"),
		}
	}

	allowed, found := departureSellable(page, request.TravelTime)
	if !found {
		// The departure is not on the page. Treated as no offer rather
		// than an error so the watch keeps running.
		application.LogDebug(ctx, p.logger, "departure not listed on schedule page", map[string]interface{}{
			"route": request.Route(),
			"date":  request.TravelDate,
			"time":  request.TravelTime,
		})
		return domain.AvailabilityResult{Available: false}, nil
	}

	if !allowed {
		return domain.AvailabilityResult{Available: false}, nil
	}

	return domain.AvailabilityResult{
		Available:   true,
		Fingerprint: offerFingerprint(request),
	}, nil
}

// departureSellable locates the schedule row carrying the requested departure
// time and reads its selling flag. The row's opening tag precedes its time
// cell, so the nearest attribute before the matching cell belongs to the row.
func departureSellable(page, travelTime string) (allowed, found bool) {
	offset := 0
	for {
		idx := strings.Index(page[offset:], timeClassMarker)
		if idx < 0 {
			return false, false
		}
		idx += offset
		offset = idx + len(timeClassMarker)

		if cellText(page, idx) != travelTime {
			continue
		}

		attrStart := strings.LastIndex(page[:idx], sellingAttr)
		if attrStart < 0 {
			return false, true
		}
		valueStart := attrStart + len(sellingAttr)
		valueEnd := strings.IndexByte(page[valueStart:], '"')
		if valueEnd < 0 {
			return false, true
		}
		return page[valueStart:valueStart+valueEnd] == "true", true
	}
}

// cellText extracts the trimmed text content of the tag whose class attribute
// contains markerIdx.
func cellText(page string, markerIdx int) string {
	open := strings.IndexByte(page[markerIdx:], '>')
	if open < 0 {
		return ""
	}
	textStart := markerIdx + open + 1
	textEnd := strings.IndexByte(page[textStart:], '<')
	if textEnd < 0 {
		return ""
	}
	return strings.TrimSpace(page[textStart : textStart+textEnd])
}

// offerFingerprint identifies an offer by its route and departure so the same
// offer is never announced twice across checkpointed restarts.
func offerFingerprint(request domain.SearchRequest) string {
	sum := sha256.Sum256([]byte(request.Origin + "|" + request.Destination + "|" + request.TravelDate + "|" + request.TravelTime))
	return hex.EncodeToString(sum[:])[:12]
}
