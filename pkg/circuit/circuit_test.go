package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/intcode/pkg/intcode"
)

func mustParse(t *testing.T, src string) intcode.Program {
	t.Helper()
	prog, err := intcode.Parse(src)
	require.NoError(t, err)
	return prog
}

var seriesCases = []struct {
	name    string
	program string
	phases  []int64
	signal  int64
}{
	{
		"accumulate",
		"3,15,3,16,1002,16,10,16,1,16,15,15,4,15,99,0,0",
		[]int64{4, 3, 2, 1, 0}, 43210,
	},
	{
		"negate and add",
		"3,23,3,24,1002,24,10,24,1002,23,-1,23,101,5,23,23,1,24,23,23,4,23,99,0,0",
		[]int64{0, 1, 2, 3, 4}, 54321,
	},
	{
		"branching",
		"3,31,3,32,1002,32,10,32,1001,31,-2,31,1007,31,0,33,1002,33,7,33,1,33,31,31,1,32,31,31,4,31,99,0,0,0",
		[]int64{1, 0, 4, 3, 2}, 65210,
	},
}

var feedbackCases = []struct {
	name    string
	program string
	phases  []int64
	signal  int64
}{
	{
		"countdown loop",
		"3,26,1001,26,-4,26,3,27,1002,27,2,27,1,27,26,27,4,27,1001,28,-1,28,1005,28,6,99,0,0,5",
		[]int64{9, 8, 7, 6, 5}, 139629729,
	},
	{
		"conditional loop",
		"3,52,1001,52,-5,52,3,53,1,52,56,54,1007,54,5,55,1005,55,26,1001,54,-5,54,1105,1,12,1,53,54,53,1008,54,0,55,1001,55,1,55,2,53,55,53,4,53,1001,56,-1,56,1005,56,6,99,0,0,0,0,10",
		[]int64{9, 7, 8, 5, 6}, 18216,
	},
}

func TestRunSeries(t *testing.T) {
	for _, tt := range seriesCases {
		t.Run(tt.name, func(t *testing.T) {
			c := New(mustParse(t, tt.program))
			got, err := c.RunSeries(tt.phases, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.signal, got)
		})
	}
}

func TestRunFeedback(t *testing.T) {
	for _, tt := range feedbackCases {
		t.Run(tt.name, func(t *testing.T) {
			c := New(mustParse(t, tt.program))
			got, err := c.RunFeedback(tt.phases, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.signal, got)
		})
	}
}

func TestBestSeries(t *testing.T) {
	for _, tt := range seriesCases {
		t.Run(tt.name, func(t *testing.T) {
			c := New(mustParse(t, tt.program))
			res, err := c.Best([]int64{0, 1, 2, 3, 4}, false)
			require.NoError(t, err)
			assert.Equal(t, tt.signal, res.Signal)
			assert.Equal(t, tt.phases, res.Phases)
			require.Len(t, res.Signals, 5)
			assert.Equal(t, tt.signal, res.Signals[4])
		})
	}
}

func TestBestFeedback(t *testing.T) {
	for _, tt := range feedbackCases {
		t.Run(tt.name, func(t *testing.T) {
			c := New(mustParse(t, tt.program))
			res, err := c.Best([]int64{5, 6, 7, 8, 9}, true)
			require.NoError(t, err)
			assert.Equal(t, tt.signal, res.Signal)
			assert.Equal(t, tt.phases, res.Phases)
		})
	}
}

func TestNoPhases(t *testing.T) {
	c := New(intcode.Program{99})
	_, err := c.Best(nil, false)
	assert.ErrorIs(t, err, ErrNoPhases)
	_, err = c.RunSeries(nil, 0)
	assert.ErrorIs(t, err, ErrNoPhases)
	_, err = c.RunFeedback(nil, 0)
	assert.ErrorIs(t, err, ErrNoPhases)
}

func TestStageWithoutOutput(t *testing.T) {
	// Reads phase and signal, then halts silently.
	c := New(mustParse(t, "3,0,3,0,99"))

	_, err := c.RunSeries([]int64{1, 2}, 0)
	require.ErrorIs(t, err, ErrNoSignal)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Stage)
	assert.Equal(t, int64(1), se.Phase)

	_, err = c.RunFeedback([]int64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestStageFault(t *testing.T) {
	c := New(mustParse(t, "3,0,98"))
	_, err := c.RunSeries([]int64{0}, 0)
	assert.ErrorIs(t, err, intcode.ErrInvalidOpcode)
}

func TestFeedbackStageEmitsBeforePhase(t *testing.T) {
	c := New(mustParse(t, "104,1,99"))
	_, err := c.RunFeedback([]int64{5}, 0)
	assert.ErrorIs(t, err, ErrUnexpectedState)
}

func TestSetupPreparesEveryStage(t *testing.T) {
	// Outputs phase + signal + mem[18]; mem[18] lies past the image.
	c := New(mustParse(t, "3,15,3,16,1,15,16,17,1,17,18,17,4,17,99,0,0,0"))

	got, err := c.RunSeries([]int64{0, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	var prepared int
	c.Setup = func(vm *intcode.VM) error {
		prepared++
		return vm.SetRam(18, 100)
	}
	got, err = c.RunSeries([]int64{0, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(201), got)
	assert.Equal(t, 2, prepared)
}

func TestSetupError(t *testing.T) {
	c := New(intcode.Program{99})
	c.Setup = func(vm *intcode.VM) error { return vm.SetRam(-1, 0) }

	_, err := c.RunSeries([]int64{3}, 0)
	assert.ErrorIs(t, err, intcode.ErrNegativeAddress)
	_, err = c.RunFeedback([]int64{3}, 0)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(3), se.Phase)
}

func TestResultTree(t *testing.T) {
	c := New(mustParse(t, seriesCases[0].program))
	res, err := c.Best([]int64{0, 1, 2, 3, 4}, false)
	require.NoError(t, err)

	out := res.Tree().String()
	assert.Contains(t, out, "input 0")
	assert.Contains(t, out, "amp A phase=4 signal=4")
	assert.Contains(t, out, "amp E phase=0 signal=43210")
}

func TestPermutations(t *testing.T) {
	in := []int64{1, 2, 3}
	perms := Permutations(in)
	require.Len(t, perms, 6)
	assert.Equal(t, []int64{1, 2, 3}, in, "input must not be modified")

	seen := map[[3]int64]bool{}
	for _, p := range perms {
		require.Len(t, p, 3)
		seen[[3]int64{p[0], p[1], p[2]}] = true
	}
	assert.Len(t, seen, 6)

	assert.Len(t, Permutations([]int64{0, 1, 2, 3, 4}), 120)
	assert.Len(t, Permutations(nil), 1)
}
