package redirect

import (
	"sync"
	"testing"
)

func TestStore_SwapIsWholesale(t *testing.T) {
	a := mustSettings(t, MapSource{KeyPageIDs: "1", KeyForceHTTP: "false"})
	b := mustSettings(t, MapSource{KeyPageIDs: "2", KeyForceHTTP: "true"})
	st := NewStore(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s := st.Load()
				// Each snapshot must be internally consistent.
				if s.HasPageID(1) == s.ForceHTTP() {
					t.Errorf("torn read: page1=%v force=%v", s.HasPageID(1), s.ForceHTTP())
					return
				}
			}
		}()
	}
	if old := st.Swap(b); old != a {
		t.Fatalf("Swap returned wrong previous value")
	}
	wg.Wait()

	if !st.Load().HasPageID(2) {
		t.Fatalf("Load after Swap should see new settings")
	}
}
