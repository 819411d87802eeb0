package tsinfer

import "testing"

func buildTestSites(t *testing.T) *AncestorBuilder {
	t.Helper()
	// 6 samples, 3 inference sites with descending frequency: site0 freq=4,
	// site1 freq=3 (a subset of site0's carriers), site2 freq=2.
	b := NewAncestorBuilder(6, 3)
	if err := b.AddSite(0, 4, []uint8{1, 1, 1, 1, 0, 0}); err != nil {
		t.Fatalf("AddSite(0): %s", err)
	}
	if err := b.AddSite(1, 3, []uint8{1, 1, 1, 0, 0, 0}); err != nil {
		t.Fatalf("AddSite(1): %s", err)
	}
	if err := b.AddSite(2, 2, []uint8{1, 1, 0, 0, 0, 0}); err != nil {
		t.Fatalf("AddSite(2): %s", err)
	}
	return b
}

func TestAncestorBuilderAddSiteRejectsSingletons(t *testing.T) {
	b := NewAncestorBuilder(4, 1)
	if err := b.AddSite(0, 1, []uint8{1, 0, 0, 0}); err == nil {
		t.Fatal("expected an error registering a frequency-1 site")
	}
}

func TestAncestorDescriptorsDecreasingFrequency(t *testing.T) {
	b := buildTestSites(t)
	descriptors, err := b.AncestorDescriptors()
	if err != nil {
		t.Fatalf("AncestorDescriptors: %s", err)
	}
	if len(descriptors) == 0 {
		t.Fatal("expected at least one descriptor")
	}
	for i := 1; i < len(descriptors); i++ {
		if descriptors[i].Frequency > descriptors[i-1].Frequency {
			t.Fatalf("descriptor %d has frequency %d > preceding %d", i, descriptors[i].Frequency, descriptors[i-1].Frequency)
		}
	}
}

func TestAncestorDescriptorsIncompleteRegistrationFails(t *testing.T) {
	b := NewAncestorBuilder(4, 2)
	if err := b.AddSite(0, 2, []uint8{1, 1, 0, 0}); err != nil {
		t.Fatalf("AddSite: %s", err)
	}
	if _, err := b.AncestorDescriptors(); err == nil {
		t.Fatal("expected an error when site 1 was never registered")
	}
}

func TestMakeAncestorCoversFocalSites(t *testing.T) {
	b := buildTestSites(t)
	descriptors, err := b.AncestorDescriptors()
	if err != nil {
		t.Fatalf("AncestorDescriptors: %s", err)
	}
	for _, d := range descriptors {
		start, end, hap, err := b.MakeAncestor(d.FocalSites)
		if err != nil {
			t.Fatalf("MakeAncestor(%v): %s", d.FocalSites, err)
		}
		if start < 0 || start >= end || end > 3 {
			t.Fatalf("MakeAncestor(%v) produced invalid interval [%d, %d)", d.FocalSites, start, end)
		}
		for _, f := range d.FocalSites {
			if hap[f-start] != 1 {
				t.Fatalf("MakeAncestor(%v): focal site %d is not 1 in the haplotype", d.FocalSites, f)
			}
		}
	}
}

func TestAssignTimesOrdersRootAndUltimateLast(t *testing.T) {
	b := buildTestSites(t)
	descriptors, err := b.AncestorDescriptors()
	if err != nil {
		t.Fatalf("AncestorDescriptors: %s", err)
	}
	times, rootTime, ultimateTime := AssignTimes(descriptors)
	for _, d := range descriptors {
		if times[d.Frequency] >= rootTime {
			t.Fatalf("descriptor frequency %d has time %d >= root time %d", d.Frequency, times[d.Frequency], rootTime)
		}
	}
	if ultimateTime != rootTime+1 {
		t.Fatalf("ultimate time %d is not root time %d + 1", ultimateTime, rootTime)
	}
}
