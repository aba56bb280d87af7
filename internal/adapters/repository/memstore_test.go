package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
)

func testKey(expert, dept string) model.ReviewKey {
	return model.ReviewKey{ExpertID: expert, DepartmentID: dept, AcademicYear: "2024-25"}
}

func put(key model.ReviewKey, notes string) model.ReviewMutation {
	return func(current *model.ExpertReview) (*model.ExpertReview, error) {
		next := current
		if next == nil {
			next = &model.ExpertReview{ID: key.String(), Status: model.StatusInProgress, CreatedAt: time.Unix(100, 0).UTC()}
		}
		next.Notes = notes
		next.UpdatedAt = time.Unix(200, 0).UTC()
		return next, nil
	}
}

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx, WithMetricsUpdateInterval(time.Hour))
		defer s.Close()
		key := testKey("e1", "d1")

		Convey("Get reports not found", func() {
			_, err := s.Get(ctx, key)
			So(apperr.IsNotFound(err), ShouldBeTrue)
		})

		Convey("Mutate receives nil and creates the row with version 1", func() {
			var seen *model.ExpertReview
			r, err := s.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
				seen = current
				return put(key, "first")(current)
			})
			So(err, ShouldBeNil)
			So(seen, ShouldBeNil)
			So(r.Version, ShouldEqual, 1)
			So(r.ExpertID, ShouldEqual, "e1")

			got, err := s.Get(ctx, key)
			So(err, ShouldBeNil)
			So(got.Notes, ShouldEqual, "first")

			Convey("a second Mutate sees the row and bumps the version", func() {
				r, err := s.Mutate(ctx, key, put(key, "second"))
				So(err, ShouldBeNil)
				So(r.Version, ShouldEqual, 2)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("returned values are copies", func() {
				got.Notes = "changed"
				again, _ := s.Get(ctx, key)
				So(again.Notes, ShouldEqual, "first")
			})

			Convey("an error from the mutation leaves the row untouched", func() {
				boom := errors.New("boom")
				_, err := s.Mutate(ctx, key, func(*model.ExpertReview) (*model.ExpertReview, error) { return nil, boom })
				So(errors.Is(err, boom), ShouldBeTrue)
				again, _ := s.Get(ctx, key)
				So(again.Version, ShouldEqual, 1)
			})

			Convey("returning nil deletes the row", func() {
				_, err := s.Mutate(ctx, key, func(*model.ExpertReview) (*model.ExpertReview, error) { return nil, nil })
				So(err, ShouldBeNil)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("listings filter and order", func() {
			for _, k := range []model.ReviewKey{testKey("e1", "d2"), testKey("e1", "d1"), testKey("e2", "d1"), testKey("e2", "d3")} {
				_, err := s.Mutate(ctx, k, put(k, ""))
				So(err, ShouldBeNil)
			}
			mine, err := s.ListByExpert(ctx, "e1", "2024-25")
			So(err, ShouldBeNil)
			So(len(mine), ShouldEqual, 2)
			So(mine[0].DepartmentID, ShouldEqual, "d1")
			So(mine[1].DepartmentID, ShouldEqual, "d2")

			other, _ := s.ListByExpert(ctx, "e1", "2023-24")
			So(other, ShouldBeEmpty)

			byDept, err := s.ListByDepartments(ctx, []string{"d1", "d3"}, "2024-25")
			So(err, ShouldBeNil)
			So(len(byDept), ShouldEqual, 3)
			So(byDept[0].ExpertID, ShouldEqual, "e1")
			So(byDept[2].DepartmentID, ShouldEqual, "d3")
		})

		Convey("concurrent first saves produce exactly one row", func() {
			var wg sync.WaitGroup
			created := make(chan struct{}, 50)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = s.Mutate(ctx, key, func(current *model.ExpertReview) (*model.ExpertReview, error) {
						if current == nil {
							created <- struct{}{}
						}
						return put(key, "x")(current)
					})
				}()
			}
			wg.Wait()
			close(created)
			So(len(created), ShouldEqual, 1)
			r, _ := s.Get(ctx, key)
			So(r.Version, ShouldEqual, 50)
		})

		Convey("a cancelled context is rejected", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := s.Mutate(cctx, key, put(key, ""))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
