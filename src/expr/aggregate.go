package expr

import (
	"strings"

	"github.com/kokes/vecdb/src/execerr"
	"github.com/kokes/vecdb/src/types"
)

// Aggregator implements spec.md §4.1's aggregate state machine: new(),
// update(state, value), merge(state, other), finalize(state) -> value.
// Grounded on the teacher's NewAggregator(function, distinct) constructor
// and per-function updater closures (column/aggregations.go), generalized
// from the teacher's per-dtype-slice AggState (one bucket per group key,
// addressed by position) to a single *AggState per group, since HashAggregate
// here keeps one Aggregator instance (and one state per group) rather than
// the teacher's whole-column batch layout.
type Aggregator struct {
	Name      string // "count", "count_star", "sum", "avg", "min", "max"
	Distinct  bool
	InputType types.LogicalType
}

// NewAggregator validates the function name and builds an Aggregator bound
// to inputType, the type of the expression being aggregated (ignored for
// COUNT(*)).
func NewAggregator(name string, distinct bool, inputType types.LogicalType) (*Aggregator, error) {
	n := strings.ToLower(name)
	switch n {
	case "count", "count_star", "sum", "avg", "min", "max":
		return &Aggregator{Name: n, Distinct: distinct, InputType: inputType}, nil
	default:
		return nil, execerr.NotImplementedf("unknown aggregate function %q", name)
	}
}

// ReturnType resolves this aggregate's finalized output type (spec.md §4.1:
// AVG/SUM widen to Double; MIN/MAX keep the input's natural type).
func (a *Aggregator) ReturnType() types.LogicalType {
	switch a.Name {
	case "count", "count_star":
		return types.TBigInt
	case "sum", "avg":
		return types.TDouble
	default: // min, max
		return a.InputType
	}
}

// AggState accumulates one group's running aggregate value. The zero value
// is not usable; build one with Aggregator.New.
type AggState struct {
	count    int64
	sum      float64
	min, max types.Value
	hasValue bool
	seen     map[string]struct{} // DISTINCT dedup, keyed by Value.String()
}

func (a *Aggregator) New() *AggState {
	s := &AggState{}
	if a.Distinct {
		s.seen = make(map[string]struct{})
	}
	return s
}

// Update folds one row's value into state. The NULL-skipping rule applies
// to every aggregate except COUNT(*), which counts rows regardless of NULL
// (spec.md §4.1).
func (a *Aggregator) Update(state *AggState, v types.Value) error {
	if a.Name == "count_star" {
		state.count++
		return nil
	}
	if v.IsNull {
		return nil
	}
	if a.Distinct {
		key := v.String()
		if _, dup := state.seen[key]; dup {
			return nil
		}
		state.seen[key] = struct{}{}
	}
	switch a.Name {
	case "count":
		state.count++
	case "sum", "avg":
		f, err := castToFloat(v)
		if err != nil {
			return err
		}
		state.sum += f
		state.count++
	case "min":
		if !state.hasValue {
			state.min, state.hasValue = v, true
			return nil
		}
		cmp, err := compareValues(v, state.min)
		if err != nil {
			return err
		}
		if cmp < 0 {
			state.min = v
		}
	case "max":
		if !state.hasValue {
			state.max, state.hasValue = v, true
			return nil
		}
		cmp, err := compareValues(v, state.max)
		if err != nil {
			return err
		}
		if cmp > 0 {
			state.max = v
		}
	}
	return nil
}

// Merge folds src (a thread-local partial state) into dst, the mirror of
// Update but combining two states instead of a state and a raw value; used
// by HashAggregate's thread-local-then-global-merge phases (spec.md §4.4.6).
func (a *Aggregator) Merge(dst, src *AggState) error {
	dst.count += src.count
	dst.sum += src.sum
	if a.Distinct {
		for k := range src.seen {
			dst.seen[k] = struct{}{}
		}
	}
	if !src.hasValue {
		return nil
	}
	if !dst.hasValue {
		dst.min, dst.max, dst.hasValue = src.min, src.max, true
		return nil
	}
	switch a.Name {
	case "min":
		if cmp, err := compareValues(src.min, dst.min); err != nil {
			return err
		} else if cmp < 0 {
			dst.min = src.min
		}
	case "max":
		if cmp, err := compareValues(src.max, dst.max); err != nil {
			return err
		} else if cmp > 0 {
			dst.max = src.max
		}
	}
	return nil
}

// Finalize produces the aggregate's output value. Numeric AVG/SUM over an
// empty group return NULL (spec.md §8).
func (a *Aggregator) Finalize(state *AggState) (types.Value, error) {
	switch a.Name {
	case "count", "count_star":
		return types.NewBigInt(state.count), nil
	case "sum":
		if state.count == 0 {
			return types.NewNull(types.TDouble), nil
		}
		return types.NewDouble(state.sum), nil
	case "avg":
		if state.count == 0 {
			return types.NewNull(types.TDouble), nil
		}
		return types.NewDouble(state.sum / float64(state.count)), nil
	case "min":
		if !state.hasValue {
			return types.NewNull(a.InputType), nil
		}
		return state.min, nil
	case "max":
		if !state.hasValue {
			return types.NewNull(a.InputType), nil
		}
		return state.max, nil
	}
	return types.Value{}, execerr.Internalf("unreachable aggregate function %q", a.Name)
}
