// Package pipeline orchestrates one ESAM request end to end: fact
// extraction, channel resolution, rule evaluation, optional SCTE-35
// building, notification construction, and event logging.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/techexlab/pois/internal/esam"
	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/rules"
	"github.com/techexlab/pois/internal/store"
	"github.com/techexlab/pois/pkg/scte35"
)

// Sentinels for the error taxonomy in §7: each maps to one HTTP surface at
// the adapter boundary.
var (
	ErrParseESAM        = errors.New("pipeline: malformed ESAM request")
	ErrUnknownChannel   = errors.New("pipeline: channel not found or disabled")
	ErrStore            = errors.New("pipeline: store error")
	ErrDeadlineExceeded = errors.New("pipeline: deadline exceeded")
)

// ChannelReader resolves a channel by name; the pipeline only reads.
type ChannelReader interface {
	FindChannel(ctx context.Context, name string) (*store.Channel, error)
}

// RuleReader loads the enabled, non-deleted rules for a channel in
// evaluation order.
type RuleReader interface {
	ListRules(ctx context.Context, channelID int64) ([]rules.Rule, error)
}

// Config carries the pipeline's fixed knobs, sourced from the process
// Config at startup.
type Config struct {
	AcquisitionPointIdentity  string
	DefaultSegmentationTypeID uint32
}

// Pipeline wires the channel/rule store and event logger around the pure
// esam/rules/scte35 packages.
type Pipeline struct {
	channels ChannelReader
	ruleset  RuleReader
	events   *eventlog.Logger
	cfg      Config
	log      *logrus.Logger
}

// New constructs a Pipeline.
func New(channels ChannelReader, ruleset RuleReader, events *eventlog.Logger, cfg Config, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{channels: channels, ruleset: ruleset, events: events, cfg: cfg, log: log}
}

// Request is one inbound ESAM call, already stripped of transport concerns.
type Request struct {
	Body        io.Reader
	ChannelHint string // from URL path, query, or header, in caller-resolved priority
	SourceIP    string
	UserAgent   string
	RequestSize int
}

// Result is what the HTTP adapter needs to respond.
type Result struct {
	NotificationXML string
	HTTPStatus      int
	MatchedRuleID   *int64
}

// Process runs the full decision pipeline for one request and always
// attempts exactly one EventRecord insertion, regardless of outcome.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	rawBody, readErr := io.ReadAll(req.Body)
	var sig *esam.Signal
	var parseErr error
	if readErr == nil {
		sig, parseErr = esam.ParseEvent(bytes.NewReader(rawBody))
	} else {
		parseErr = readErr
	}
	if parseErr != nil {
		p.logEvent(ctx, eventRecordForParseFailure(req, string(rawBody), parseErr))
		return nil, fmt.Errorf("%w: %v", ErrParseESAM, parseErr)
	}

	facts := factsFromSignal(sig)
	channelName := resolveChannelName(req.ChannelHint, facts)

	channel, err := p.channels.FindChannel(ctx, channelName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.logEvent(ctx, eventRecordForUnknownChannel(channelName, sig, facts, req, rawBody))
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
		}
		p.logEvent(ctx, eventRecordForStoreError(ctx, channelName, sig, facts, req, rawBody, err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !channel.Enabled {
		p.logEvent(ctx, eventRecordForUnknownChannel(channelName, sig, facts, req, rawBody))
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
	}

	ruleList, err := p.ruleset.ListRules(ctx, channel.ID)
	if err != nil {
		p.logEvent(ctx, eventRecordForStoreError(ctx, channelName, sig, facts, req, rawBody, err))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	matched := rules.FirstMatch(ruleList, facts)
	action, params := p.resolveAction(matched, facts)

	notification := esam.Notification{
		Action:                   action,
		AcquisitionSignalID:      facts["acquisitionSignalID"],
		AcquisitionPointIdentity: p.cfg.AcquisitionPointIdentity,
		SCTE35Base64:             stringParam(params, "scte35_b64"),
		Now:                      time.Now(),
	}
	respXML := notification.XML()

	elapsedMs := int(time.Since(start).Milliseconds())
	rec := eventlog.Record{
		ChannelName:         channelName,
		AcquisitionSignalID: facts["acquisitionSignalID"],
		UTCPoint:            facts["utcPoint"],
		Action:              action,
		RequestSize:         intPtr(req.RequestSize),
		ProcessingTimeMs:    &elapsedMs,
		ResponseStatus:      200,
		RawRequest:          stringPtrOrNil(string(rawBody)),
		RawResponse:         stringPtrOrNil(respXML),
	}
	if req.SourceIP != "" {
		rec.SourceIP = &req.SourceIP
	}
	if req.UserAgent != "" {
		rec.UserAgent = &req.UserAgent
	}
	annotateSCTE35(&rec, facts)
	if matched != nil {
		rec.MatchedRuleID = &matched.ID
		rec.MatchedRuleName = &matched.Name
	}
	p.logEvent(ctx, rec)

	result := &Result{NotificationXML: respXML, HTTPStatus: 200}
	if matched != nil {
		result.MatchedRuleID = &matched.ID
	}
	return result, nil
}

// DryRunResult is the outcome of evaluating a channel's rules against an
// ESAM document without logging an event or building a real notification.
type DryRunResult struct {
	MatchedRuleID   *int64  `json:"matched_rule_id,omitempty"`
	MatchedRuleName *string `json:"matched_rule_name,omitempty"`
	Action          string  `json:"action"`
	Note            string  `json:"note"`
}

// DryRun evaluates channelName's rules against body's facts, for testing a
// rule set before activation. It never writes an EventRecord.
func (p *Pipeline) DryRun(ctx context.Context, channelName string, body io.Reader) (*DryRunResult, error) {
	sig, err := esam.ParseEvent(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseESAM, err)
	}
	facts := factsFromSignal(sig)

	channel, err := p.channels.FindChannel(ctx, channelName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !channel.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, channelName)
	}

	ruleList, err := p.ruleset.ListRules(ctx, channel.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	matched := rules.FirstMatch(ruleList, facts)
	action := "noop"
	note := "pass-through"
	if matched != nil {
		action = matched.Action
		note = noteForAction(action)
	}

	res := &DryRunResult{Action: action, Note: note}
	if matched != nil {
		res.MatchedRuleID = &matched.ID
		res.MatchedRuleName = &matched.Name
	}
	return res, nil
}

func noteForAction(action string) string {
	switch action {
	case "delete":
		return "filtered signal"
	case "replace":
		return "replaced signal"
	default:
		return "pass-through"
	}
}

// resolveAction applies the matched rule's action and params, invoking the
// builder when requested. Unmatched requests fall back to noop
// pass-through of the original inbound payload.
func (p *Pipeline) resolveAction(matched *rules.Rule, facts rules.Facts) (string, map[string]any) {
	if matched == nil {
		params := map[string]any{}
		if v, ok := facts["scte35_b64"]; ok {
			params["scte35_b64"] = v
		}
		return "noop", params
	}

	params := map[string]any{}
	for k, v := range matched.Params {
		params[k] = v
	}

	if build, ok := params["build"].(map[string]any); ok {
		if b64, err := p.runBuilder(build); err == nil {
			params["scte35_b64"] = b64
		} else {
			p.log.WithError(err).WithField("rule_id", matched.ID).Warn("pipeline: build failed, falling back")
		}
	}

	if matched.Action == "noop" {
		if _, hasBuilt := params["scte35_b64"]; !hasBuilt {
			if v, ok := facts["scte35_b64"]; ok {
				params["scte35_b64"] = v
			}
		}
	}

	return matched.Action, params
}

func (p *Pipeline) runBuilder(build map[string]any) (string, error) {
	command, _ := build["command"].(string)
	opts := &scte35.BuildOptions{SegmentationTypeID: p.cfg.DefaultSegmentationTypeID}
	if v, ok := build["segmentation_type_id"].(float64); ok {
		opts.SegmentationTypeID = uint32(v)
	}

	var sis *scte35.SpliceInfoSection
	var err error
	switch command {
	case "time_signal":
		sis, err = scte35.BuildTimeSignalImmediate(opts)
	case "time_signal_immediate":
		sis, err = scte35.BuildTimeSignalImmediate(opts)
	case "splice_insert_out":
		durationSeconds := 0.0
		if v, ok := build["duration_s"].(float64); ok {
			durationSeconds = v
		} else if v, ok := build["duration_seconds"].(float64); ok {
			durationSeconds = v
		}
		eventID := uint32(1)
		if v, ok := build["event_id"].(float64); ok {
			eventID = uint32(v)
		}
		sis, err = scte35.BuildSpliceInsertOut(eventID, time.Duration(durationSeconds*float64(time.Second)), opts)
	default:
		return "", fmt.Errorf("pipeline: unknown build command %q", command)
	}
	if err != nil {
		return "", fmt.Errorf("pipeline: build failed: %w", err)
	}
	return sis.Base64()
}

// resolveChannelName applies the path/query/header, then fact, priority
// order. req.ChannelHint already folds path/query/header into one value
// per the HTTP adapter's own precedence.
func resolveChannelName(hint string, facts rules.Facts) string {
	if hint != "" {
		return hint
	}
	if v, ok := facts["ChannelName"]; ok && v != "" {
		return v
	}
	return "default"
}

func (p *Pipeline) logEvent(ctx context.Context, rec eventlog.Record) {
	if p.events == nil {
		return
	}
	if _, err := p.events.Insert(ctx, rec); err != nil {
		p.log.WithError(err).Error("pipeline: event log write failed")
	}
}

func eventRecordForParseFailure(req Request, raw string, err error) eventlog.Record {
	msg := err.Error()
	rec := eventlog.Record{
		ChannelName:         "unknown",
		AcquisitionSignalID: "",
		UTCPoint:            "",
		Action:              "noop",
		RequestSize:         intPtr(req.RequestSize),
		ResponseStatus:      400,
		ErrorMessage:        &msg,
		RawRequest:          stringPtrOrNil(raw),
	}
	return rec
}

func eventRecordForUnknownChannel(channelName string, sig *esam.Signal, facts rules.Facts, req Request, raw []byte) eventlog.Record {
	msg := "channel not found or disabled"
	rec := eventlog.Record{
		ChannelName:         channelName,
		AcquisitionSignalID: facts["acquisitionSignalID"],
		UTCPoint:            facts["utcPoint"],
		Action:              "noop",
		RequestSize:         intPtr(req.RequestSize),
		ResponseStatus:      404,
		ErrorMessage:        &msg,
		RawRequest:          stringPtrOrNil(string(raw)),
	}
	annotateSCTE35(&rec, facts)
	return rec
}

func eventRecordForStoreError(ctx context.Context, channelName string, sig *esam.Signal, facts rules.Facts, req Request, raw []byte, err error) eventlog.Record {
	msg := err.Error()
	status := 500
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status = 504
		msg = "deadline exceeded"
	}
	rec := eventlog.Record{
		ChannelName:         channelName,
		AcquisitionSignalID: facts["acquisitionSignalID"],
		UTCPoint:            facts["utcPoint"],
		Action:              "noop",
		RequestSize:         intPtr(req.RequestSize),
		ResponseStatus:      status,
		ErrorMessage:        &msg,
		RawRequest:          stringPtrOrNil(string(raw)),
	}
	annotateSCTE35(&rec, facts)
	return rec
}

func annotateSCTE35(rec *eventlog.Record, facts rules.Facts) {
	if v, ok := facts["scte35.command"]; ok {
		rec.SCTE35Command = &v
	}
	if v, ok := facts["scte35.segmentation_type_id"]; ok {
		rec.SCTE35TypeID = &v
	}
	if v, ok := facts["scte35.segmentation_upid"]; ok {
		rec.SCTE35UPID = &v
	}
}

func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func intPtr(v int) *int {
	return &v
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

