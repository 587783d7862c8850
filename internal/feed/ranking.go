package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/httputil"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// RankedSecurity is one row of the dollar-volume ranking page
type RankedSecurity struct {
	Rank         int
	Security     contracts.SecurityID
	Close        float64
	DollarVolume float64
}

// RankingScraper pulls the trading-value ranking page and extracts the
// listed securities. Used as a candidate source when no bar database is
// wired up.
type RankingScraper struct {
	client *httputil.Client
	url    string
	logger *logger.Logger
}

// NewRankingScraper creates a scraper for the given ranking page
func NewRankingScraper(client *httputil.Client, url string, log *logger.Logger) *RankingScraper {
	return &RankingScraper{
		client: client,
		url:    url,
		logger: log,
	}
}

// FetchValueRanking fetches and parses the ranking page
func (s *RankingScraper) FetchValueRanking(ctx context.Context) ([]RankedSecurity, error) {
	resp, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	items, err := parseRankingHTML(string(body))
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"count": len(items),
	}).Debug("Fetched value ranking")
	return items, nil
}

var symbolRe = regexp.MustCompile(`^[A-Z0-9.]{1,12}$`)

// parseRankingHTML extracts ranking rows from the page's data table.
// Row layout: rank | symbol | name | close | trading value.
func parseRankingHTML(html string) ([]RankedSecurity, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse ranking page: %w", err)
	}

	parseNum := func(s string) float64 {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0
		}
		n, _ := strconv.ParseFloat(s, 64)
		return n
	}

	var items []RankedSecurity
	doc.Find("table.ranking tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		rank, err := strconv.Atoi(strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil {
			return // header or pager row
		}

		symbol := strings.TrimSpace(cells.Eq(1).Text())
		if !symbolRe.MatchString(symbol) {
			return
		}

		items = append(items, RankedSecurity{
			Rank:         rank,
			Security:     contracts.SecurityID(symbol),
			Close:        parseNum(cells.Eq(3).Text()),
			DollarVolume: parseNum(cells.Eq(4).Text()),
		})
	})

	return items, nil
}

// Bars converts ranking rows into a candidate batch shaped like the daily
// bar feed, stamped with the given end time.
func Bars(items []RankedSecurity, endTime time.Time) []contracts.DailyBar {
	batch := make([]contracts.DailyBar, 0, len(items))
	for _, it := range items {
		batch = append(batch, contracts.DailyBar{
			Security:     it.Security,
			Close:        it.Close,
			DollarVolume: it.DollarVolume,
			EndTime:      endTime,
		})
	}
	return batch
}
