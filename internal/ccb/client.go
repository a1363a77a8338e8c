// Package ccb retrieves contribution and membership data from the church
// management system's report API. Reports are requested over a logged-in
// session and arrive as CSV payloads.
package ccb

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"givingreport/internal/domain"
)

// ErrMissingCredentials indicates the client was configured without a
// subdomain or login.
var ErrMissingCredentials = errors.New("ccb: subdomain and credentials are required")

// reportStartDate is where transaction history begins; nothing earlier is in
// the system.
var reportStartDate = time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)

// ilwCOAList is the set of chart-of-accounts leaf names that belong to the
// program, including retired headings that older transactions still carry.
var ilwCOAList = map[string]bool{
	"Ingomar Living Waters":                   true,
	"Living Water General Donation":           true,
	"Living Water General Donation (Non-TD)":  true,
	"Auctions":                                true,
	"Auctions (Non-TD)":                       true,
	"Projects":                                true,
	"Projects (Non-TD)":                       true,
	"Sponsorships & Tickets":                  true,
	"Sponsorships & Tickets (Non-TD)":         true,
	"Water Filters":                           true,
	"Water Filters (Non-TD)":                  true,
	"Old WaterWorks Heading":                  true,
	"Old Wine to Water Heading":               true,
	"Old Living Water Donation":               true,
	"Old WtW - Sponsor (TD)":                  true,
	"Old WtW Auction TD":                      true,
	"Living Waters Event - not used":          true,
	"I-47H6A WaterWorks Donations":            true,
	"Wine to Water - Tickets":                 true,
	"Wine to Water - General":                 true,
	"Ellis LW Holiday Fundraiser":             true,
}

// Options configures the report client.
type Options struct {
	Subdomain  string
	Username   string
	Password   string
	BaseURL    string // overrides https://<subdomain>.ccbchurch.com; used in tests
	HTTPClient *http.Client
	Logger     zerolog.Logger
	Now        func() time.Time
}

// Client performs HTTP calls against the report API over a cookie session.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// New validates the options and constructs a Client with its own cookie jar
// unless one was injected.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" && opts.Subdomain == "" {
		return nil, ErrMissingCredentials
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, ErrMissingCredentials
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.ccbchurch.com", opts.Subdomain)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("ccb: cookie jar: %w", err)
		}
		httpClient = &http.Client{Jar: jar, Timeout: 5 * time.Minute}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   opts.Username,
		password:   opts.Password,
		httpClient: httpClient,
		logger:     opts.Logger,
		now:        now,
	}, nil
}

// Login establishes the report session. It must be called before any report
// retrieval.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"ax":             {"login"},
		"form[login]":    {c.username},
		"form[password]": {c.password},
	}
	resp, err := c.postForm(ctx, "/login.php", form)
	if err != nil {
		return fmt.Errorf("ccb: login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ccb: %w: status %d", domain.ErrLoginFailed, resp.StatusCode)
	}
	return nil
}

// Pull is the result of a transactions retrieval: the raw table (header row
// first) plus the family and individual ids seen giving to the program.
type Pull struct {
	FamilyIDs     map[int64]struct{}
	IndividualIDs map[int64]struct{}
	Transactions  [][]string
}

// Transactions retrieves contribution detail reports year by year from 2013
// through the run date, keeping only rows whose chart-of-accounts leaf
// belongs to the program.
func (c *Client) Transactions(ctx context.Context) (*Pull, error) {
	pull := &Pull{
		FamilyIDs:     make(map[int64]struct{}),
		IndividualIDs: make(map[int64]struct{}),
	}
	coaCol, famCol, indCol := -1, -1, -1

	end := c.now()
	for year := reportStartDate.Year(); year <= end.Year(); year++ {
		from := fmt.Sprintf("01/01/%d", year)
		to := fmt.Sprintf("12/31/%d", year)
		if year == reportStartDate.Year() {
			from = reportStartDate.Format("01/02/2006")
		}
		if year == end.Year() {
			to = end.Format("01/02/2006")
		}
		c.logger.Info().Str("from", from).Str("to", to).Msg("retrieving transaction detail")

		body, err := c.fetch(ctx, "/report.php", transactionDetailRequest(from, to))
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(body, "Name,Campus,") {
			// Empty years return an HTML shell instead of CSV.
			c.logger.Info().Int("year", year).Msg("no transaction results returned, skipping")
			continue
		}

		records, err := readCSV(body)
		if err != nil {
			return nil, fmt.Errorf("ccb: transaction detail %d: %w", year, err)
		}
		for i, row := range records {
			if i == 0 {
				if coaCol < 0 {
					coaCol = indexOf(row, "COA Category")
					famCol = indexOf(row, "Family ID")
					indCol = indexOf(row, "Ind ID")
					if coaCol < 0 || famCol < 0 || indCol < 0 {
						return nil, fmt.Errorf("ccb: transaction detail header missing expected columns: %v", row)
					}
					pull.Transactions = append(pull.Transactions, row)
				}
				continue
			}
			if coaCol >= len(row) || famCol >= len(row) || indCol >= len(row) {
				continue
			}
			leaves := strings.Split(row[coaCol], " : ")
			if !ilwCOAList[leaves[len(leaves)-1]] {
				continue
			}
			famID, err := strconv.ParseInt(row[famCol], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ccb: transaction family id %q: %w", row[famCol], err)
			}
			indID, err := strconv.ParseInt(row[indCol], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ccb: transaction individual id %q: %w", row[indCol], err)
			}
			pull.FamilyIDs[famID] = struct{}{}
			pull.IndividualIDs[indID] = struct{}{}
			pull.Transactions = append(pull.Transactions, row)
		}
	}
	c.logger.Info().Int("rows", len(pull.Transactions)).Msg("transaction info retrieved")
	return pull, nil
}

// Individuals retrieves the membership export filtered to the giving
// families. The export takes the server a minute or two to assemble.
func (c *Client) Individuals(ctx context.Context, familyIDs map[int64]struct{}) ([][]string, error) {
	c.logger.Info().Msg("retrieving individual export; the server takes a while to assemble it")

	body, err := c.fetch(ctx, "/report.php", individualExportRequest())
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(body, `"Ind ID",`) {
		return nil, fmt.Errorf("ccb: individual export: %w", domain.ErrReportRejected)
	}

	records, err := readCSV(body)
	if err != nil {
		return nil, fmt.Errorf("ccb: individual export: %w", err)
	}
	var out [][]string
	famCol := -1
	for i, row := range records {
		if i == 0 {
			famCol = indexOf(row, "Family ID")
			if famCol < 0 {
				return nil, fmt.Errorf("ccb: individual export header missing Family ID: %v", row)
			}
			out = append(out, row)
			continue
		}
		famID, err := strconv.ParseInt(row[famCol], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := familyIDs[famID]; ok {
			out = append(out, row)
		}
	}
	c.logger.Info().Int("rows", len(out)).Msg("individual info retrieved")
	return out, nil
}

func transactionDetailRequest(from, to string) url.Values {
	info := map[string]any{
		"id":                            "",
		"type":                          "transaction_detail",
		"email_pdf":                     "0",
		"is_contextual":                 "1",
		"transaction_detail_type_id":    "0",
		"date_range":                    "",
		"ignore_static_range":           "static",
		"start_date":                    from,
		"end_date":                      to,
		"campus_ids":                    []string{"1"},
		"output":                        "csv",
	}
	raw, _ := json.Marshal(info)
	return url.Values{
		"aj":      {"1"},
		"ax":      {"run"},
		"request": {string(raw)},
	}
}

func individualExportRequest() url.Values {
	info := map[string]any{
		"id":         "",
		"type":       "export_individuals_change_log",
		"print_type": "export_individuals",
		"query_id":   "",
		"campus_ids": []string{"1"},
	}
	raw, _ := json.Marshal(info)
	return url.Values{
		"request": {string(raw)},
		"output":  {"export"},
	}
}

func (c *Client) fetch(ctx context.Context, path string, form url.Values) (string, error) {
	resp, err := c.postForm(ctx, path, form)
	if err != nil {
		return "", fmt.Errorf("ccb: report request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ccb: report returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ccb: read report body: %w", err)
	}
	// Reports are served UTF-8 with a BOM.
	return strings.TrimPrefix(string(data), "\uFEFF"), nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpClient.Do(req)
}

func readCSV(body string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func indexOf(row []string, name string) int {
	for i, col := range row {
		if col == name {
			return i
		}
	}
	return -1
}
