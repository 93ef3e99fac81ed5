/*
Package pool runs accepted connections on a fixed number of workers.

Two implementations of IWorkerPool exist:

  - NewThreadPool: goroutine workers inside the server process
  - NewProcessPool: forked worker processes; the connection descriptor is passed to
    an idle worker over a unix socketpair and the worker acknowledges it when done

Both queue connections without bound, so the accept loop never waits for a worker.
A program that is started by a process pool must call WorkerControlConn and ServeWorker:

	ctrl, err := pool.WorkerControlConn()
	if err != nil {
		return err
	}
	return pool.ServeWorker(ctx, ctrl, handler)
*/
package pool
