package scoring

import (
	"math"
	"testing"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var f = tournamenttypes.FloatPtr

func TestEvaluate(t *testing.T) {
	ranges := tournamenttypes.TemplateParams{
		Ranges: []tournamenttypes.Range{
			{Min: f(0), Max: f(5), Score: 10},
			{Min: f(6), Max: f(10), Score: 7},
		},
	}
	open := tournamenttypes.TemplateParams{
		Ranges:  []tournamenttypes.Range{{Max: f(3), Score: 5}, {Min: f(100), Score: -1}},
		Bonuses: []tournamenttypes.Bonus{{Label: "birdie", Score: 2}},
	}

	tests := []struct {
		name     string
		template tournamenttypes.Template
		params   tournamenttypes.TemplateParams
		v        float64
		bonus    string
		want     float64
	}{
		{"raw number", tournamenttypes.TemplateRawNumber, tournamenttypes.TemplateParams{}, 72.5, "", 72.5},
		{"number convert rounds", tournamenttypes.TemplateNumberConvert, tournamenttypes.TemplateParams{Factor: 1.5}, 4, "", 6},
		{"number convert rounds half up", tournamenttypes.TemplateNumberConvert, tournamenttypes.TemplateParams{Factor: 0.5}, 5, "", 3},
		{"range upper bound inclusive", tournamenttypes.TemplateRangeConvert, ranges, 5, "", 10},
		{"second range", tournamenttypes.TemplateRangeConvert, ranges, 6, "", 7},
		{"no range matches", tournamenttypes.TemplateRangeConvert, ranges, 11, "", 0},
		{"gap between ranges", tournamenttypes.TemplateRangeConvert, ranges, 5.5, "", 0},
		{"open lower bound", tournamenttypes.TemplateRangeConvert, open, -40, "", 5},
		{"open upper bound", tournamenttypes.TemplateRangeConvert, open, 1e6, "", -1},
		{"bonus added", tournamenttypes.TemplateRangeConvertBonus, open, 2, "birdie", 7},
		{"unknown bonus adds nothing", tournamenttypes.TemplateRangeConvertBonus, open, 2, "eagle", 5},
		{"bonus ignored by plain range", tournamenttypes.TemplateRangeConvert, open, 2, "birdie", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.template, tt.params, tt.v, tt.bonus)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Evaluate(tt.template, tt.params, tt.v, tt.bonus), "evaluation must be deterministic")
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		kind   tournamenttypes.AggregatorKind
		values []float64
		want   float64
		wantOK bool
	}{
		{"avg rounds", tournamenttypes.AggregateAvg, []float64{3, 4, 4}, 4, true},
		{"avg of nothing has no value", tournamenttypes.AggregateAvg, nil, 0, false},
		{"default is sum", "", []float64{1, 2, 3}, 6, true},
		{"best is the minimum", tournamenttypes.AggregateBest, []float64{5, 2, 9}, 2, true},
		{"count", tournamenttypes.AggregateCount, []float64{5, 2, 9}, 3, true},
		{"non-finite dropped", tournamenttypes.AggregateSum, []float64{1, math.NaN(), math.Inf(1), 2}, 3, true},
		{"only non-finite", tournamenttypes.AggregateCount, []float64{math.NaN()}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Aggregate(tt.kind, tt.values)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateEntryAccumulate(t *testing.T) {
	def := tournamenttypes.EventDefinition{
		ID:        "long",
		Template:  tournamenttypes.TemplateRangeConvertBonus,
		InputMode: tournamenttypes.InputAccumulate,
		Attempts:  3,
		Params: tournamenttypes.TemplateParams{
			Ranges:  []tournamenttypes.Range{{Min: f(0), Max: f(100), Score: 1}, {Min: f(101), Score: 3}},
			Bonuses: []tournamenttypes.Bonus{{Label: "fairway", Score: 1}},
		},
		SlotAggregator: tournamenttypes.AggregateSum,
	}
	entry := tournamenttypes.InputEntry{Slots: []tournamenttypes.Slot{
		{Value: f(150), Bonus: "fairway"},
		{},
		{Value: f(80)},
	}}

	got, ok := EvaluateEntry(def, entry)
	require.True(t, ok)
	assert.Equal(t, 5.0, got)

	_, ok = EvaluateEntry(def, tournamenttypes.InputEntry{Slots: []tournamenttypes.Slot{{}, {}}})
	assert.False(t, ok)

	def.InputMode = tournamenttypes.InputRefresh
	_, ok = EvaluateEntry(def, tournamenttypes.InputEntry{})
	assert.False(t, ok)
	got, ok = EvaluateEntry(def, tournamenttypes.InputEntry{Value: f(120), Bonus: "fairway"})
	require.True(t, ok)
	assert.Equal(t, 4.0, got)
}

func TestRank(t *testing.T) {
	rows := []Entry{
		{Key: "a", Value: 3, Valid: true},
		{Key: "b", Value: 1, Valid: true},
		{Key: "none"},
		{Key: "c", Value: 3, Valid: true},
		{Key: "nan", Value: math.NaN(), Valid: true},
	}

	asc := Rank(rows, tournamenttypes.RankAsc)
	want := []Ranked{
		{Key: "b", Value: 1, Rank: 1},
		{Key: "a", Value: 3, Rank: 2},
		{Key: "c", Value: 3, Rank: 3},
	}
	if diff := cmp.Diff(want, asc); diff != "" {
		t.Fatalf("asc ranking mismatch (-want +got):\n%s", diff)
	}

	desc := Rank(rows, tournamenttypes.RankDesc)
	want = []Ranked{
		{Key: "a", Value: 3, Rank: 1},
		{Key: "c", Value: 3, Rank: 2},
		{Key: "b", Value: 1, Rank: 3},
	}
	if diff := cmp.Diff(want, desc); diff != "" {
		t.Fatalf("desc ranking mismatch (-want +got):\n%s", diff)
	}
}

// Random rows rank identically on every call, with positional ranks.
func TestRankDeterminism(t *testing.T) {
	faker := gofakeit.New(7)
	for i := range 100 {
		var rows []Entry
		for j := range faker.IntRange(0, 30) {
			rows = append(rows, Entry{
				Key:   faker.LetterN(4) + string(rune('a'+j%26)),
				Value: float64(faker.IntRange(-5, 5)),
				Valid: faker.Bool(),
			})
		}
		first := Rank(rows, tournamenttypes.RankAsc)
		second := Rank(rows, tournamenttypes.RankAsc)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("case %d: ranking not deterministic:\n%s", i, diff)
		}
		for k, r := range first {
			require.Equal(t, k+1, r.Rank)
			if k > 0 {
				require.LessOrEqual(t, first[k-1].Value, r.Value)
			}
		}
	}
}

func fourball() *tournamenttypes.Tournament {
	t := &tournamenttypes.Tournament{
		ID:        "t1",
		Mode:      tournamenttypes.ModeFourball,
		RoomCount: 2,
		RoomNames: []string{"Eagles"},
		Participants: []tournamenttypes.Participant{
			{ID: "a", Group: 1, Nickname: "Ann", Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("b")},
			{ID: "b", Group: 2, Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("a")},
			{ID: "c", Group: 3, Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("d")},
			{ID: "d", Group: 4, Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("c")},
			{ID: "e", Group: 5, Room: tournamenttypes.IntPtr(2)},
		},
		EventDefinitions: []tournamenttypes.EventDefinition{
			{ID: "drive", Target: tournamenttypes.TargetPerson, Template: tournamenttypes.TemplateRawNumber, RankOrder: tournamenttypes.RankDesc, InputMode: tournamenttypes.InputRefresh, GroupAggregator: tournamenttypes.AggregateAvg},
			{ID: "quiz", Target: tournamenttypes.TargetRoom, Template: tournamenttypes.TemplateRawNumber, RankOrder: tournamenttypes.RankAsc, InputMode: tournamenttypes.InputRefresh},
		},
		Inputs: map[tournamenttypes.EventID]tournamenttypes.InputBucket{
			"drive": {"a": {Value: f(250)}, "b": {Value: f(200)}, "c": {Value: f(240)}, "e": {Value: f(300)}},
			"quiz":  {"1": {Value: f(8)}, "2": {Value: f(5)}},
		},
	}
	for _, p := range t.Participants {
		t.AddToIndex(*p.Room, p.ID)
	}
	return t
}

func TestComputeRanking(t *testing.T) {
	tour := fourball()

	got, err := ComputeRanking(tour, "drive")
	require.NoError(t, err)
	want := []Ranked{
		{Key: "e", Label: "e", Value: 300, Rank: 1},
		{Key: "a", Label: "Ann", Value: 250, Rank: 2},
		{Key: "c", Label: "c", Value: 240, Rank: 3},
		{Key: "b", Label: "b", Value: 200, Rank: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("person ranking mismatch (-want +got):\n%s", diff)
	}

	got, err = ComputeRanking(tour, "quiz")
	require.NoError(t, err)
	want = []Ranked{
		{Key: "2", Label: "Room 2", Value: 5, Rank: 1},
		{Key: "1", Label: "Eagles", Value: 8, Rank: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("room ranking mismatch (-want +got):\n%s", diff)
	}

	_, err = ComputeRanking(tour, "missing")
	assert.ErrorIs(t, err, tournamenttypes.ErrNotFound)
}

func TestComputeGroupedRanking(t *testing.T) {
	tour := fourball()

	byTeam, err := ComputeGroupedRanking(tour, "drive", GroupByTeam)
	require.NoError(t, err)
	want := []Ranked{
		{Key: "2-A", Label: "Room 2 A", Value: 300, Rank: 1},
		{Key: "1-B", Label: "Eagles B", Value: 240, Rank: 2},
		{Key: "1-A", Label: "Eagles A", Value: 225, Rank: 3},
	}
	if diff := cmp.Diff(want, byTeam); diff != "" {
		t.Fatalf("team ranking mismatch (-want +got):\n%s", diff)
	}

	byRoom, err := ComputeGroupedRanking(tour, "drive", GroupByRoom)
	require.NoError(t, err)
	want = []Ranked{
		{Key: "2", Label: "Room 2", Value: 300, Rank: 1},
		{Key: "1", Label: "Eagles", Value: 230, Rank: 2},
	}
	if diff := cmp.Diff(want, byRoom); diff != "" {
		t.Fatalf("room grouping mismatch (-want +got):\n%s", diff)
	}

	_, err = ComputeGroupedRanking(tour, "quiz", GroupByRoom)
	assert.ErrorIs(t, err, tournamenttypes.ErrFailedPrecondition)
	_, err = ComputeGroupedRanking(tour, "drive", "league")
	assert.ErrorIs(t, err, tournamenttypes.ErrInvalidArgument)
}

func TestContains(t *testing.T) {
	tour := fourball()
	assert.True(t, Contains(tour, tournamenttypes.TargetPerson, "a", "a"))
	assert.False(t, Contains(tour, tournamenttypes.TargetPerson, "b", "a"))
	assert.True(t, Contains(tour, tournamenttypes.TargetRoom, "1", "d"))
	assert.False(t, Contains(tour, tournamenttypes.TargetRoom, "2", "d"))
	assert.True(t, Contains(tour, tournamenttypes.TargetTeam, "1-B", "d"))
	assert.False(t, Contains(tour, tournamenttypes.TargetTeam, "1-A", "d"))
	assert.True(t, ValidKey(tour, tournamenttypes.TargetTeam, "2-A"))
	assert.False(t, ValidKey(tour, tournamenttypes.TargetTeam, "2-B"))
}
