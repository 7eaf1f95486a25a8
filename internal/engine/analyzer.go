package engine

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options are the computation knobs; zero values fall back to the engine
// defaults so a zero Options is usable.
type Options struct {
	RequirementMultiplier decimal.Decimal
	ThresholdMinutes      int
	BonusWagerMode        BonusWagerMode
	TopN                  int
	MaxParallelMembers    int
}

func DefaultOptions() Options {
	return Options{
		RequirementMultiplier: decimal.NewFromInt(1),
		ThresholdMinutes:      5,
		BonusWagerMode:        BonusWagerMerged,
		TopN:                  3,
		MaxParallelMembers:    8,
	}
}

func (o Options) multiplier() decimal.Decimal {
	if o.RequirementMultiplier.IsZero() {
		return decimal.NewFromInt(1)
	}
	return o.RequirementMultiplier
}

func (o Options) threshold() time.Duration {
	if o.ThresholdMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(o.ThresholdMinutes) * time.Minute
}

func (o Options) topN() int {
	if o.TopN <= 0 {
		return 3
	}
	return o.TopN
}

func (o Options) parallelism() int {
	if o.MaxParallelMembers <= 0 {
		return 8
	}
	return o.MaxParallelMembers
}

// Request carries one uploaded table plus the scope parameters.
type Request struct {
	Events           []EventRow `json:"events"`
	MemberFilter     string     `json:"member_id,omitempty"`
	CycleIndex       *int       `json:"cycle_index,omitempty"`
	StartCycleIndex  *int       `json:"start_cycle_index,omitempty"`
	EndCycleIndex    *int       `json:"end_cycle_index,omitempty"`
	ThresholdMinutes *int       `json:"threshold_minutes,omitempty"`
}

// MemberResult is one member's slot in a batch response. A request error
// for one member occupies its Error field while other members complete:
// partial-batch success is expected for multi-member uploads.
type MemberResult struct {
	MemberID   string            `json:"member_id"`
	Report     *Report           `json:"report,omitempty"`
	Brief      *Brief            `json:"brief,omitempty"`
	Cycles     []CycleIndexEntry `json:"cycles,omitempty"`
	ProfitRows []ProfitRow       `json:"profit_rows,omitempty"`
	Warnings   []Warning         `json:"warnings,omitempty"`
	Error      *RequestError     `json:"error,omitempty"`
}

// Analyzer is the stateless entry point. Each call is a pure function of
// the event table and the request parameters; nothing survives the call.
type Analyzer struct {
	Options Options
	Logger  *zap.Logger
}

type memberData struct {
	id     string
	events []Event
	cycles []Cycle
	bets   []Bet
}

// effectiveOptions folds per-request overrides into the configured options.
func (a *Analyzer) effectiveOptions(req Request) Options {
	opts := a.Options
	if req.ThresholdMinutes != nil && *req.ThresholdMinutes > 0 {
		opts.ThresholdMinutes = *req.ThresholdMinutes
	}
	return opts
}

// fanOut parses the table once, splits it per member and runs build for
// each member in parallel. Segmentation inside one member stays strictly
// ordered; members are independent of each other.
func (a *Analyzer) fanOut(ctx context.Context, req Request, build func(m *memberData, res *MemberResult) error) ([]MemberResult, []Warning, error) {
	if len(req.Events) == 0 {
		return nil, nil, requestErrorf(ErrEmptyEventTable, "the uploaded table has no rows")
	}
	events, tableWarnings := ParseEvents(req.Events)
	byMember := groupByMember(events)
	if req.MemberFilter != "" {
		stream, ok := byMember[req.MemberFilter]
		if !ok {
			return nil, tableWarnings, requestErrorf(ErrEmptyEventTable, "no rows for member %s", req.MemberFilter)
		}
		byMember = map[string][]Event{req.MemberFilter: stream}
	}
	if len(byMember) == 0 {
		return nil, tableWarnings, requestErrorf(ErrEmptyEventTable, "every row was dropped as unusable")
	}

	ids := make([]string, 0, len(byMember))
	for id := range byMember {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]MemberResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Options.parallelism())
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stream, warnings := normalizeStream(id, byMember[id])
			bets, betWarnings := PairBets(stream)
			m := &memberData{
				id:     id,
				events: stream,
				cycles: Segment(stream),
				bets:   bets,
			}
			res := &results[i]
			res.MemberID = id
			res.Warnings = append(warnings, betWarnings...)
			if err := build(m, res); err != nil {
				if reqErr, ok := AsRequestError(err); ok {
					res.Error = reqErr
					return nil
				}
				if a.Logger != nil {
					a.Logger.Error("member analysis failed", zap.String("member_id", id), zap.Error(err))
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, tableWarnings, err
	}
	return results, tableWarnings, nil
}

// resolveCycleIndex defaults to the most recent cycle when the request
// leaves the index unset.
func resolveCycleIndex(req Request, cycles []Cycle) (int, error) {
	if len(cycles) == 0 {
		return 0, requestErrorf(ErrNoCyclesForMember, "no deposits in the analysis window")
	}
	if req.CycleIndex == nil {
		return len(cycles), nil
	}
	idx := *req.CycleIndex
	if idx < 1 || idx > len(cycles) {
		return 0, requestErrorf(ErrInvalidCycleIndex, "cycle %d of %d", idx, len(cycles))
	}
	return idx, nil
}

// resolveCycleRange accepts an explicit (start,end), a collapsed single
// index, or nothing (most recent cycle).
func resolveCycleRange(req Request, cycles []Cycle) (int, int, error) {
	if len(cycles) == 0 {
		return 0, 0, requestErrorf(ErrNoCyclesForMember, "no deposits in the analysis window")
	}
	switch {
	case req.StartCycleIndex != nil && req.EndCycleIndex != nil:
		from, to := *req.StartCycleIndex, *req.EndCycleIndex
		if from > to {
			return 0, 0, requestErrorf(ErrInvalidRange, "start %d after end %d", from, to)
		}
		if from < 1 || to > len(cycles) {
			return 0, 0, requestErrorf(ErrInvalidRange, "cycles %d..%d of %d", from, to, len(cycles))
		}
		return from, to, nil
	case req.StartCycleIndex != nil || req.EndCycleIndex != nil:
		return 0, 0, requestErrorf(ErrInvalidRange, "both start_cycle_index and end_cycle_index are required")
	default:
		idx, err := resolveCycleIndex(req, cycles)
		if err != nil {
			return 0, 0, err
		}
		return idx, idx, nil
	}
}

// Reports computes the single-cycle report for every member in scope.
func (a *Analyzer) Reports(ctx context.Context, req Request) ([]MemberResult, []Warning, error) {
	opts := a.effectiveOptions(req)
	return a.fanOut(ctx, req, func(m *memberData, res *MemberResult) error {
		idx, err := resolveCycleIndex(req, m.cycles)
		if err != nil {
			return err
		}
		report, err := BuildReport(m.id, m.events, m.cycles, m.bets, idx, opts)
		if err != nil {
			return err
		}
		res.Report = report
		return nil
	})
}

// Briefs computes the cycle-range brief for every member in scope.
func (a *Analyzer) Briefs(ctx context.Context, req Request) ([]MemberResult, []Warning, error) {
	opts := a.effectiveOptions(req)
	return a.fanOut(ctx, req, func(m *memberData, res *MemberResult) error {
		from, to, err := resolveCycleRange(req, m.cycles)
		if err != nil {
			return err
		}
		brief, err := BuildBrief(m.id, m.events, m.cycles, m.bets, from, to, opts)
		if err != nil {
			return err
		}
		res.Brief = brief
		return nil
	})
}

// CycleIndexes lists every member's cycles for selector population. A
// member with zero deposits gets an empty list, not an error.
func (a *Analyzer) CycleIndexes(ctx context.Context, req Request) ([]MemberResult, []Warning, error) {
	return a.fanOut(ctx, req, func(m *memberData, res *MemberResult) error {
		res.Cycles = BuildCycleIndex(m.cycles)
		return nil
	})
}

// ProfitStreams lists settlement rows with funding attribution per member.
func (a *Analyzer) ProfitStreams(ctx context.Context, req Request) ([]MemberResult, []Warning, error) {
	return a.fanOut(ctx, req, func(m *memberData, res *MemberResult) error {
		idx, err := resolveCycleIndex(req, m.cycles)
		if err != nil {
			return err
		}
		rows, err := BuildProfitStream(m.cycles, m.bets, idx)
		if err != nil {
			return err
		}
		res.ProfitRows = rows
		return nil
	})
}
