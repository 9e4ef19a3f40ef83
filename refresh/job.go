package refresh

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many partitions a job refreshes at once.
const DefaultConcurrency = 8

// Runner is one unit of a job. Execute must contain its own failures.
type Runner interface {
	Name() string
	Execute(ctx context.Context) bool
}

// Result summarizes one job run.
type Result struct {
	Saved  int
	Failed int
}

// Job runs its tasks concurrently. A failing or panicking task never stops
// the others.
type Job struct {
	tasks []Runner
	limit int
	log   pylon.Logger
}

func NewJob(tasks []Runner, log pylon.Logger) *Job {
	return &Job{tasks: tasks, limit: DefaultConcurrency, log: pylon.OrNop(log)}
}

// NewRecentJob refreshes neurons and commitments of every netuid.
// opts apply to every task; WithLogger also sets the job logger.
func NewRecentJob(p *pylon.Provider, client chain.Client, netuids []chain.NetUID, opts ...TaskOption) *Job {
	tasks := make([]Runner, 0, 2*len(netuids))
	for _, n := range netuids {
		tasks = append(tasks,
			NewNeuronsTask(p, client, n, opts...),
			NewCommitmentsTask(p, client, n, opts...),
		)
	}
	return NewJob(tasks, newTaskConfig(opts).log)
}

// WithConcurrency sets how many tasks run at once; n <= 0 means unbounded.
func (j *Job) WithConcurrency(n int) *Job {
	j.limit = n
	return j
}

func (j *Job) Len() int { return len(j.tasks) }

// Run executes every task once and waits for all of them.
func (j *Job) Run(ctx context.Context) Result {
	results := make([]bool, len(j.tasks))

	var g errgroup.Group
	if j.limit > 0 {
		g.SetLimit(j.limit)
	}
	for i, t := range j.tasks {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					j.log.Error("refresh task panicked", pylon.Fields{"task": t.Name(), "panic": fmt.Sprint(r)})
				}
			}()
			results[i] = t.Execute(ctx)
			return nil
		})
	}
	_ = g.Wait()

	var res Result
	for _, ok := range results {
		if ok {
			res.Saved++
		} else {
			res.Failed++
		}
	}
	return res
}
