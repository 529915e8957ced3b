package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/okian/roster/internal/app"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service shared by concurrent callers", t, func() {
		svc := service.New(service.WithClock(func() time.Time { return today }))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.Upload(ctx, strings.NewReader(sampleRoster()))
		So(err, ShouldBeNil)

		Convey("When readers and renewals run at the same time", func() {
			const (
				writers      = 4
				readers      = 8
				renewalsEach = 5
			)
			var wg sync.WaitGroup
			errs := make(chan error, writers*renewalsEach+readers*renewalsEach*2)

			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < renewalsEach; j++ {
						if _, err := svc.RenewOne(ctx, "Carol", 1); err != nil {
							errs <- err
						}
					}
				}()
			}
			for i := 0; i < readers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < renewalsEach; j++ {
						if _, err := svc.Status(ctx); err != nil {
							errs <- err
						}
						if _, err := svc.Search(ctx, "carol"); err != nil {
							errs <- err
						}
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then every renewal is applied exactly once", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				d, ok := remaining(t, svc, "Carol")
				So(ok, ShouldBeTrue)
				So(d, ShouldEqual, 305+writers*renewalsEach)
				So(svc.GetStats()["renewals"], ShouldEqual, writers*renewalsEach)
			})
		})
	})
}
