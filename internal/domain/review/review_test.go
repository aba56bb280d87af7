package review_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/udrf/internal/adapters/repository"
	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/internal/domain/rubric"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func newService(ctx context.Context, opts ...review.Option) (*review.Service, *repository.MemoryStore) {
	store := repository.NewMemoryStore(ctx, repository.WithMetricsUpdateInterval(time.Hour))
	var seq atomic.Int64
	base := []review.Option{
		review.WithClock(func() time.Time { return fixedNow }),
		review.WithIDGenerator(func() string { return "rev-" + string(rune('0'+seq.Add(1))) }),
	}
	svc, err := review.NewService(store, append(base, opts...)...)
	So(err, ShouldBeNil)
	return svc, store
}

func saveReq(scores ...*float64) review.SaveRequest {
	return review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", ExpertScoresBySection: scores}
}

func TestLifecycle(t *testing.T) {
	Convey("StateOf derives the lifecycle state", t, func() {
		So(review.StateOf(nil), ShouldEqual, review.StatePending)
		So(review.StateOf(&model.ExpertReview{Status: model.StatusInProgress}), ShouldEqual, review.StateInProgress)
		So(review.StateOf(&model.ExpertReview{IsLocked: true}), ShouldEqual, review.StateLocked)
		So(review.StateOf(&model.ExpertReview{Status: model.StatusCompleted}), ShouldEqual, review.StateLocked)
	})

	Convey("ApplyLock does not modify its input", t, func() {
		in := &model.ExpertReview{Status: model.StatusInProgress}
		out, err := review.ApplyLock("op", in, fixedNow)
		So(err, ShouldBeNil)
		So(out.IsLocked, ShouldBeTrue)
		So(in.IsLocked, ShouldBeFalse)
		So(*out.CompletedAt, ShouldEqual, fixedNow)
	})

	Convey("ParseLockPolicy", t, func() {
		p, err := review.ParseLockPolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, review.PolicyStrict)
		p, err = review.ParseLockPolicy("Admin_Override")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, review.PolicyAdminOverride)
		_, err = review.ParseLockPolicy("lenient")
		So(errors.Is(err, review.ErrUnknownPolicy), ShouldBeTrue)
	})

	Convey("NewService rejects a nil store", t, func() {
		_, err := review.NewService(nil)
		So(err, ShouldEqual, review.ErrNilStore)
	})
}

func TestSave(t *testing.T) {
	Convey("Given a review service with a strict policy", t, func() {
		ctx := context.Background()
		svc, store := newService(ctx)
		defer store.Close()
		key := model.ReviewKey{ExpertID: "exp-1", DepartmentID: "cs", AcademicYear: "2024-25"}

		Convey("the first save creates an in-progress review with a derived total", func() {
			res, err := svc.Save(ctx, "exp-1", saveReq(f(250), f(80), nil, f(100), f(50)))
			So(err, ShouldBeNil)
			So(res.Success, ShouldBeTrue)
			So(res.Message, ShouldEqual, "review saved")
			So(res.ReviewID, ShouldEqual, "rev-1")
			So(*res.Scores.ExpertTotal, ShouldEqual, 480)
			So(res.Scores.Status, ShouldEqual, model.StatusInProgress)

			r, err := svc.Get(ctx, key)
			So(err, ShouldBeNil)
			So(r.CreatedAt, ShouldEqual, fixedNow)
			So(r.Version, ShouldEqual, 1)

			Convey("a second save updates the same row and keeps omitted sections", func() {
				res, err := svc.Save(ctx, "exp-1", saveReq(nil, nil, f(90), nil, nil))
				So(err, ShouldBeNil)
				So(res.ReviewID, ShouldEqual, "rev-1")
				So(*res.Scores.ExpertTotal, ShouldEqual, 570)
				n, _ := svc.Count(ctx)
				So(n, ShouldEqual, 1)
			})

			Convey("locking twice fails with already locked", func() {
				res, err := svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Lock: true})
				So(err, ShouldBeNil)
				So(res.Message, ShouldEqual, "review locked")
				So(res.Scores.IsLocked, ShouldBeTrue)
				So(res.Scores.Status, ShouldEqual, model.StatusLocked)

				_, err = svc.Lock(ctx, key)
				So(apperr.IsAlreadyLocked(err), ShouldBeTrue)
				So(apperr.Message(err), ShouldEqual, "review is already locked")
			})

			Convey("a locked review rejects saves and deletes until unlocked", func() {
				_, err := svc.Lock(ctx, key)
				So(err, ShouldBeNil)

				_, err = svc.Save(ctx, "exp-1", saveReq(f(1), f(1), f(1), f(1), f(1)))
				So(apperr.IsAlreadyLocked(err), ShouldBeTrue)
				_, err = svc.Delete(ctx, key)
				So(apperr.IsAlreadyLocked(err), ShouldBeTrue)

				r, _ := svc.Get(ctx, key)
				So(*r.ExpertTotal, ShouldEqual, 480)

				res, err := svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Unlock: true})
				So(err, ShouldBeNil)
				So(res.Message, ShouldEqual, "review unlocked")
				So(res.Scores.IsLocked, ShouldBeFalse)

				_, err = svc.Save(ctx, "exp-1", saveReq(f(1), f(1), f(1), f(1), f(1)))
				So(err, ShouldBeNil)
			})

			Convey("unlocking an open review is a validation error", func() {
				_, err := svc.Unlock(ctx, key)
				So(apperr.IsValidation(err), ShouldBeTrue)
			})

			Convey("delete removes the row once and then succeeds as a no-op", func() {
				res, err := svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Action: "delete"})
				So(err, ShouldBeNil)
				So(res.Message, ShouldEqual, "review deleted")

				res, err = svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Action: "delete"})
				So(err, ShouldBeNil)
				So(res.Success, ShouldBeTrue)
				So(res.Message, ShouldEqual, "no review to delete")

				_, err = svc.Get(ctx, key)
				So(apperr.IsNotFound(err), ShouldBeTrue)
			})
		})

		Convey("lock and unlock on a missing review are not found", func() {
			_, err := svc.Lock(ctx, key)
			So(apperr.IsNotFound(err), ShouldBeTrue)
			_, err = svc.Unlock(ctx, key)
			So(apperr.IsNotFound(err), ShouldBeTrue)
		})

		Convey("lock short-circuits before score validation", func() {
			req := saveReq(f(-1))
			req.Lock = true
			_, err := svc.Save(ctx, "exp-1", req)
			So(apperr.IsNotFound(err), ShouldBeTrue)
		})

		Convey("malformed payloads are validation errors", func() {
			_, err := svc.Save(ctx, "exp-1", saveReq(f(1), f(2)))
			So(apperr.IsValidation(err), ShouldBeTrue)

			_, err = svc.Save(ctx, "", saveReq(f(1), f(1), f(1), f(1), f(1)))
			So(apperr.IsValidation(err), ShouldBeTrue)

			_, err = svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Lock: true, Unlock: true})
			So(apperr.IsValidation(err), ShouldBeTrue)

			_, err = svc.Save(ctx, "exp-1", review.SaveRequest{DepartmentID: "cs", AcademicYear: "2024-25", Action: "archive"})
			So(apperr.IsValidation(err), ShouldBeTrue)

			_, err = svc.Save(ctx, "exp-1", saveReq(f(-5), nil, nil, nil, nil))
			So(apperr.IsValidation(err), ShouldBeTrue)
		})

		Convey("section scores above the maximum are capped", func() {
			res, err := svc.Save(ctx, "exp-1", saveReq(f(999), f(100.456), nil, nil, f(80)))
			So(err, ShouldBeNil)
			So(*res.Scores.BySection[0], ShouldEqual, 300)
			So(*res.Scores.BySection[1], ShouldEqual, 100)
			So(*res.Scores.BySection[4], ShouldEqual, 75)
			So(*res.Scores.ExpertTotal, ShouldEqual, 475)
		})

		Convey("a save without section scores keeps the total empty", func() {
			res, err := svc.Save(ctx, "exp-1", saveReq(nil, nil, nil, nil, nil))
			So(err, ShouldBeNil)
			So(res.Scores.ExpertTotal, ShouldBeNil)
		})

		Convey("overrides are validated against the rubric and capped", func() {
			req := saveReq(nil, nil, nil, nil, nil)
			req.ItemOverrides = map[string]float64{rubric.ItemJournalPapers: 75}
			req.NarrativeOverrides = map[string]float64{rubric.ItemResearchFacilities: 7}
			notes := "verified"
			req.Notes = &notes
			_, err := svc.Save(ctx, "exp-1", req)
			So(err, ShouldBeNil)
			r, _ := svc.Get(ctx, key)
			So(r.ItemOverrides[rubric.ItemJournalPapers], ShouldEqual, 60)
			So(r.NarrativeOverrides[rubric.ItemResearchFacilities], ShouldEqual, 7)
			So(r.Notes, ShouldEqual, "verified")

			bad := saveReq(nil, nil, nil, nil, nil)
			bad.ItemOverrides = map[string]float64{rubric.ItemResearchFacilities: 5}
			_, err = svc.Save(ctx, "exp-1", bad)
			So(apperr.IsValidation(err), ShouldBeTrue)

			bad = saveReq(nil, nil, nil, nil, nil)
			bad.NarrativeOverrides = map[string]float64{rubric.ItemJournalPapers: 5}
			_, err = svc.Save(ctx, "exp-1", bad)
			So(apperr.IsValidation(err), ShouldBeTrue)

			bad = saveReq(nil, nil, nil, nil, nil)
			bad.ItemOverrides = map[string]float64{"IX.1": 5}
			_, err = svc.Save(ctx, "exp-1", bad)
			So(apperr.IsValidation(err), ShouldBeTrue)
		})

		Convey("administrative updates are forbidden under the strict policy", func() {
			_, err := svc.AdminUpdate(ctx, key, review.Scores{})
			So(errors.Is(err, apperr.ErrForbidden), ShouldBeTrue)
		})

		Convey("concurrent locks let exactly one caller win", func() {
			_, err := svc.Save(ctx, "exp-1", saveReq(f(1), nil, nil, nil, nil))
			So(err, ShouldBeNil)
			var wg sync.WaitGroup
			var wins, conflicts atomic.Int32
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Lock(ctx, key)
					switch {
					case err == nil:
						wins.Add(1)
					case apperr.IsAlreadyLocked(err):
						conflicts.Add(1)
					}
				}()
			}
			wg.Wait()
			So(wins.Load(), ShouldEqual, 1)
			So(conflicts.Load(), ShouldEqual, 19)
		})

		Convey("listing returns only the expert's reviews", func() {
			_, err := svc.Save(ctx, "exp-1", saveReq(f(1), nil, nil, nil, nil))
			So(err, ShouldBeNil)
			_, err = svc.Save(ctx, "exp-2", saveReq(f(2), nil, nil, nil, nil))
			So(err, ShouldBeNil)
			mine, err := svc.List(ctx, "exp-1", "2024-25")
			So(err, ShouldBeNil)
			So(len(mine), ShouldEqual, 1)
			all, err := svc.ForDepartments(ctx, []string{"cs"}, "2024-25")
			So(err, ShouldBeNil)
			So(len(all), ShouldEqual, 2)
			_, err = svc.List(ctx, "", "2024-25")
			So(apperr.IsValidation(err), ShouldBeTrue)
		})
	})
}

func TestAdminUpdate(t *testing.T) {
	Convey("Given the admin override policy", t, func() {
		ctx := context.Background()
		svc, store := newService(ctx, review.WithLockPolicy(review.PolicyAdminOverride))
		defer store.Close()
		key := model.ReviewKey{ExpertID: "exp-1", DepartmentID: "cs", AcademicYear: "2024-25"}
		So(svc.Policy(), ShouldEqual, review.PolicyAdminOverride)

		Convey("a missing review is not found", func() {
			_, err := svc.AdminUpdate(ctx, key, review.Scores{})
			So(apperr.IsNotFound(err), ShouldBeTrue)
		})

		Convey("a locked review is updated without unlocking it", func() {
			_, err := svc.Save(ctx, "exp-1", saveReq(f(100), f(50), nil, nil, nil))
			So(err, ShouldBeNil)
			_, err = svc.Lock(ctx, key)
			So(err, ShouldBeNil)

			in, err := review.ToScores(saveReq(nil, f(60), f(70), nil, nil))
			So(err, ShouldBeNil)
			r, err := svc.AdminUpdate(ctx, key, in)
			So(err, ShouldBeNil)
			So(r.IsLocked, ShouldBeTrue)
			So(*r.ExpertTotal, ShouldEqual, 230)

			_, err = svc.Save(ctx, "exp-1", saveReq(f(1), nil, nil, nil, nil))
			So(apperr.IsAlreadyLocked(err), ShouldBeTrue)
		})
	})
}
