package tasks

import (
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
)

func TestGroupWaitsForAllTasks(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	var done atomic.Int32
	release := make(chan struct{})

	for _, name := range []string{"a", "b", "c"} {
		g.Go(name, func() error {
			<-release
			done.Add(1)
			return nil
		})
	}

	if g.Pending() != 3 {
		t.Fatalf("期望 3 个待完成任务, 实际 %d", g.Pending())
	}
	close(release)

	if err := g.Wait(); err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if done.Load() != 3 || g.Pending() != 0 {
		t.Fatalf("所有任务应完成: done=%d pending=%d", done.Load(), g.Pending())
	}
	if !reflect.DeepEqual(g.Names(), []string{"a", "b", "c"}) {
		t.Fatalf("任务名顺序不正确: %v", g.Names())
	}
}

func TestGroupCollectsErrors(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	boom := errors.New("boom")
	g.Go("ok", func() error { return nil })
	g.Go("bad", func() error { return boom })

	err := g.Wait()
	if !errors.Is(err, boom) {
		t.Fatalf("应返回任务错误, 实际 %v", err)
	}
}

func TestGroupRecoversPanic(t *testing.T) {
	g := NewGroup(zerolog.Nop())
	g.Go("panics", func() error { panic("kaboom") })

	if err := g.Wait(); err == nil {
		t.Fatal("panic 应转换为错误")
	}
}

func TestNestedGroupAdoption(t *testing.T) {
	host := NewGroup(zerolog.Nop())
	child := NewGroup(zerolog.Nop())
	var ran atomic.Bool
	child.Go("persist", func() error { ran.Store(true); return nil })

	host.Go("run", child.Wait)
	if err := host.Wait(); err != nil {
		t.Fatalf("不应报错: %v", err)
	}
	if !ran.Load() {
		t.Fatal("子任务应在宿主 Wait 返回前完成")
	}
}
