package admin

import "context"

type DepartmentRepository interface {
	List(ctx context.Context) ([]Department, error)
	// Insert adds d unless a department with the same name exists. It
	// reports whether a row was written.
	Insert(ctx context.Context, d *Department) (bool, error)
}

type StatsRepository interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}
