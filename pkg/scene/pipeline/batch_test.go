package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchProcess(t *testing.T) {
	c := readyCoordinator(t, newFakes("cube|is on|table"), WithBatchSize(2))

	jobs := []*Job{
		{Source: "a.txt", Request: Request{Text: redCube}},
		{Source: "b.txt", Request: Request{Text: redCube, Lang: "en"}},
		{Source: "empty.txt", Request: Request{Text: ""}},
		{Source: "c.txt", Request: Request{Text: redCube}},
		{Source: "d.txt", Request: Request{Text: redCube, Lang: "xx"}},
	}

	err := c.BatchProcess(context.Background(), jobs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 5")

	for _, j := range []*Job{jobs[0], jobs[1], jobs[3]} {
		require.NoError(t, j.Err, j.Source)
		assertRedCubeGraph(t, j.Graph)
	}
	assert.Error(t, jobs[2].Err)
	assert.Nil(t, jobs[2].Graph)
	assert.Error(t, jobs[4].Err)
}

func TestBatchProcessAllSucceed(t *testing.T) {
	c := readyCoordinator(t, newFakes())

	jobs := make([]*Job, 25)
	for i := range jobs {
		jobs[i] = &Job{Request: Request{Text: redCube}}
	}
	require.NoError(t, c.BatchProcess(context.Background(), jobs))
	for _, j := range jobs {
		assertRedCubeGraph(t, j.Graph)
	}
}

func TestBatchProcessStopsOnCancelledContext(t *testing.T) {
	c := readyCoordinator(t, newFakes())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []*Job{{Request: Request{Text: redCube}}}
	assert.ErrorIs(t, c.BatchProcess(ctx, jobs), context.Canceled)
	assert.Nil(t, jobs[0].Graph)
}
