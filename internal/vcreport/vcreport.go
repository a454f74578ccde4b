// Package vcreport finds RP-search action logs whose top offers look
// mispriced and keeps those where the first two offers come from
// recommended shops.
package vcreport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
)

const (
	rpSearchActionID = 5
	recommendedShop  = 1
)

type Options struct {
	// Schema holding vc_action_log, shops_prices, shops_sources and shops.
	Schema     string
	Days       int
	Limit      int
	Countries  []string
	Categories []int64
}

func DefaultOptions() Options {
	return Options{
		Schema:     "valuechecker",
		Days:       4,
		Limit:      1000,
		Countries:  []string{"uk", "nl"},
		Categories: []int64{4364, 431006},
	}
}

// Log is one vc_action_log row. vc_action_value holds the decoded JSON.
type Log map[string]any

func (l Log) action() map[string]any {
	v, _ := l["vc_action_value"].(map[string]any)
	return v
}

// TopResults returns the offers of the search, in rank order.
func (l Log) TopResults() []map[string]any {
	raw, _ := l.action()["top_results"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if offer, ok := r.(map[string]any); ok {
			out = append(out, offer)
		}
	}
	return out
}

type Report struct {
	Fetched int   `json:"fetched"`
	Matched int   `json:"matched"`
	Logs    []Log `json:"logs"`
}

// Run loads the logs, filters them by country and category, attaches shop
// data to every offer and keeps the logs whose first two offers are from
// recommended shops. The server must speak MySQL.
func Run(ctx context.Context, server *simplesql.Server, conn *simplesql.Conn, opts Options) (*Report, error) {
	if server.Dialect() != simplesql.MySQL {
		return nil, fmt.Errorf("value-checker report on %s: %w", server.Dialect().Name(), simplesql.ErrUnsupported)
	}
	if err := simplesql.ValidIdentifier(opts.Schema); err != nil {
		return nil, err
	}
	if opts.Days <= 0 || opts.Limit <= 0 {
		return nil, fmt.Errorf("%w: days %d, limit %d", simplesql.ErrInvalidLimit, opts.Days, opts.Limit)
	}

	logs, err := fetchLogs(ctx, server, conn, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{Fetched: len(logs)}

	logs = FilterCountries(logs, opts.Countries)
	logs = FilterCategories(logs, opts.Categories)
	report.Matched = len(logs)

	offers, err := fetchOffers(ctx, server, conn, opts.Schema, UniqueOfferIDs(logs))
	if err != nil {
		return nil, err
	}
	AttachOffers(logs, offers)
	report.Logs = KeepRecommended(logs)
	return report, nil
}

func logsQuery(schema string, limit int) string {
	return fmt.Sprintf(`SELECT *
FROM (
    SELECT
        val.uuid,
        val.create_time,
        val.user_id,
        val.vc_action_value,
        val.vc_action_value -> '$.top_results[0].pid' AS pid_0,
        val.vc_action_value -> '$.top_results[0].offer_id' AS offer_id_0,
        val.vc_action_value -> '$.top_results[0].total_price' AS total_price_0,
        val.vc_action_value -> '$.top_results[1].pid' AS pid_1,
        val.vc_action_value -> '$.top_results[1].offer_id' AS offer_id_1,
        val.vc_action_value -> '$.top_results[1].total_price' AS total_price_1,
        val.vc_action_value -> '$.top_results[2].pid' AS pid_2,
        val.vc_action_value -> '$.top_results[2].offer_id' AS offer_id_2,
        val.vc_action_value -> '$.top_results[2].total_price' AS total_price_2
    FROM %[1]s.vc_action_log val
    WHERE val.vc_action_id = ? AND val.create_time > NOW() - INTERVAL ? DAY
) rplogs
WHERE rplogs.pid_0 = rplogs.pid_1
    AND rplogs.pid_0 = rplogs.pid_2
    AND ABS(rplogs.total_price_0 - rplogs.total_price_1) / rplogs.total_price_0 > 0.2
    AND ABS(rplogs.total_price_1 - rplogs.total_price_2) / rplogs.total_price_1 < 0.1
LIMIT %[2]d`, quoteSchema(schema), limit)
}

func offersQuery(schema string, d simplesql.Dialect, n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf(`SELECT
    sp.offer_id,
    sp.offer_url,
    sp.deeplink,
    sp.pid,
    sp.source_shop_id,
    sp.total_price,
    sp.currency,
    sp.international,
    COALESCE(s.shop_name, ss.source_shop_name) AS shop_name,
    IFNULL(s.shop_status_default, 0) AS shop_status_default
FROM %[1]s.shops_prices sp
LEFT JOIN %[1]s.shops_sources ss ON ss.source_shop_id = sp.source_shop_id
LEFT JOIN %[1]s.shops s ON s.shop_id = ss.shop_id
WHERE sp.offer_id IN (%[2]s)`, quoteSchema(schema), strings.Join(marks, ", "))
}

func quoteSchema(schema string) string { return simplesql.MySQL.QuoteIdent(schema) }

// fetchLogs streams the candidate logs through a cursor and decodes each
// vc_action_value.
func fetchLogs(ctx context.Context, server *simplesql.Server, conn *simplesql.Conn, opts Options) ([]Log, error) {
	res, err := server.Execute(ctx, conn, logsQuery(opts.Schema, opts.Limit),
		[]any{rpSearchActionID, opts.Days}, simplesql.FetchCursor, simplesql.CleanupCursor)
	if err != nil {
		return nil, err
	}
	defer res.Cursor.Close()

	var logs []Log
	for {
		row, err := res.Cursor.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return logs, nil
		}
		log := Log(row.Map())
		value, err := decodeJSON(log["vc_action_value"])
		if err != nil {
			return nil, fmt.Errorf("log %v: vc_action_value: %w", log["uuid"], err)
		}
		log["vc_action_value"] = value
		logs = append(logs, log)
	}
}

func decodeJSON(v any) (map[string]any, error) {
	var raw []byte
	switch s := v.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchOffers returns the offers keyed by offer id.
func fetchOffers(ctx context.Context, server *simplesql.Server, conn *simplesql.Conn, schema string, ids []string) (map[string]map[string]any, error) {
	offers := make(map[string]map[string]any)
	if len(ids) == 0 {
		return offers, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			args[i] = n
		} else {
			args[i] = id
		}
	}

	res, err := server.Execute(ctx, conn, offersQuery(schema, server.Dialect(), len(ids)), args, simplesql.FetchAll, simplesql.CleanupCursor)
	if err != nil {
		return nil, err
	}
	for _, row := range res.Rows {
		offer := row.Map()
		offers[key(offer["offer_id"])] = offer
	}
	return offers, nil
}

func key(v any) string { return fmt.Sprint(v) }

func FilterCountries(logs []Log, countries []string) []Log {
	allowed := make(map[string]bool, len(countries))
	for _, c := range countries {
		allowed[strings.ToLower(c)] = true
	}
	var out []Log
	for _, l := range logs {
		country, _ := l.action()["country"].(string)
		if allowed[strings.ToLower(country)] {
			out = append(out, l)
		}
	}
	return out
}

func FilterCategories(logs []Log, categories []int64) []Log {
	allowed := make(map[int64]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	var out []Log
	for _, l := range logs {
		cid, err := simplesql.ToInt64(l.action()["cid"])
		if err == nil && allowed[cid] {
			out = append(out, l)
		}
	}
	return out
}

// UniqueOfferIDs returns every offer id of every log once, sorted.
func UniqueOfferIDs(logs []Log) []string {
	seen := make(map[string]bool)
	for _, l := range logs {
		for _, offer := range l.TopResults() {
			if id, ok := offer["offer_id"]; ok && id != nil {
				seen[key(id)] = true
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AttachOffers copies the shop data onto each log offer found in offers and
// sets its shop_status. Offers missing from the table are left as they are.
func AttachOffers(logs []Log, offers map[string]map[string]any) {
	for _, l := range logs {
		for _, logOffer := range l.TopResults() {
			offer, ok := offers[key(logOffer["offer_id"])]
			if !ok {
				continue
			}
			logOffer["shop_status"] = offer["shop_status_default"]
			for k, v := range offer {
				logOffer[k] = v
			}
		}
	}
}

// KeepRecommended keeps logs whose first two offers have shop status 1. An
// offer without a status counts as 0.
func KeepRecommended(logs []Log) []Log {
	out := []Log{}
	for _, l := range logs {
		top := l.TopResults()
		if len(top) > 2 {
			top = top[:2]
		}
		keep := true
		for _, offer := range top {
			status, _ := simplesql.ToInt64(offer["shop_status"])
			if status != recommendedShop {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, l)
		}
	}
	return out
}

// WriteJSON prints the kept logs as indented JSON followed by the matched
// and kept counts.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Logs); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d %d\n", r.Matched, len(r.Logs))
	return err
}
