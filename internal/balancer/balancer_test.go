package balancer

import (
	"testing"
	"time"

	"edgekit/internal/cluster"
)

func testNodes() []*cluster.Node {
	return []*cluster.Node{
		cluster.NewNode("edge-1", cluster.USEast, 100),
		cluster.NewNode("edge-2", cluster.USWest, 100),
		cluster.NewNode("edge-3", cluster.EUWest, 100),
	}
}

func TestNew_RequiresNodes(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("Expected error for empty node list")
	}
}

func TestRouteRequest_PicksSameRegion(t *testing.T) {
	b, err := New(testNodes(), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	route := b.RouteRequest(cluster.USEast, "api")
	if route.Node.ID() != "edge-1" {
		t.Errorf("Expected edge-1 for us-east client, got %s", route.Node.ID())
	}
	if route.Latency != 0 {
		t.Errorf("Expected 0 self-region latency, got %v", route.Latency)
	}
	if route.Fallback {
		t.Error("Expected a non-fallback route")
	}
}

func TestRouteRequest_Optimality(t *testing.T) {
	nodes := testNodes()
	b, err := New(nodes, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	regions := []cluster.Region{cluster.USEast, cluster.USWest, cluster.EUWest, cluster.APSouth, cluster.Region("sa-east")}
	for _, region := range regions {
		route := b.RouteRequest(region, "api")
		for _, n := range nodes {
			if !n.Healthy() {
				continue
			}
			if lat := cluster.Latency(n.Region(), region); lat < route.Latency {
				t.Errorf("Region %s: chose %s at %v but %s offers %v", region, route.Node.ID(), route.Latency, n.ID(), lat)
			}
		}
	}
}

func TestRouteRequest_SkipsUnhealthy(t *testing.T) {
	nodes := testNodes()
	nodes[0].SetLoad(95) // edge-1 unhealthy

	b, _ := New(nodes, nil)
	route := b.RouteRequest(cluster.USEast, "api")
	if route.Node.ID() == "edge-1" {
		t.Error("Expected unhealthy node to be skipped")
	}
	if route.Fallback {
		t.Error("Expected a regular route while healthy nodes remain")
	}
	// us-east -> us-west is the cheapest remaining pair.
	if route.Node.ID() != "edge-2" || route.Latency != 60*time.Millisecond {
		t.Errorf("Expected edge-2 at 60ms, got %s at %v", route.Node.ID(), route.Latency)
	}
}

func TestRouteRequest_AllUnhealthyFallsBack(t *testing.T) {
	nodes := testNodes()
	for _, n := range nodes {
		n.SetLoad(99)
	}

	b, _ := New(nodes, nil)
	route := b.RouteRequest(cluster.USEast, "api")

	if !route.Fallback {
		t.Error("Expected fallback route")
	}
	if route.Node.ID() != "edge-1" {
		t.Errorf("Expected first configured node as fallback, got %s", route.Node.ID())
	}
	if route.Latency != FallbackPenalty {
		t.Errorf("Expected penalty %v, got %v", FallbackPenalty, route.Latency)
	}
}

func TestRouteRequest_TieBreaksToFirstConfigured(t *testing.T) {
	nodes := []*cluster.Node{
		cluster.NewNode("edge-a", cluster.USEast, 100),
		cluster.NewNode("edge-b", cluster.USEast, 100),
	}
	b, _ := New(nodes, nil)

	for i := 0; i < 10; i++ {
		route := b.RouteRequest(cluster.USEast, "api")
		if route.Node.ID() != "edge-a" {
			t.Fatalf("Expected deterministic first-node tie-break, got %s", route.Node.ID())
		}
	}
}

func TestHealthCheck(t *testing.T) {
	nodes := testNodes()
	nodes[1].SetLoad(50)
	nodes[2].SetLoad(95)

	b, _ := New(nodes, nil)
	report := b.HealthCheck()

	if len(report) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(report))
	}
	if !report["edge-1"].Healthy || report["edge-1"].LoadRatio != 0 {
		t.Errorf("edge-1 report wrong: %+v", report["edge-1"])
	}
	if !report["edge-2"].Healthy || report["edge-2"].LoadRatio != 0.5 {
		t.Errorf("edge-2 report wrong: %+v", report["edge-2"])
	}
	if report["edge-3"].Healthy || report["edge-3"].LoadRatio != 0.95 {
		t.Errorf("edge-3 report wrong: %+v", report["edge-3"])
	}
}

func TestNodes_ReturnsConfiguredOrder(t *testing.T) {
	b, _ := New(testNodes(), nil)

	got := b.Nodes()
	want := []string{"edge-1", "edge-2", "edge-3"}
	for i, n := range got {
		if n.ID() != want[i] {
			t.Errorf("Nodes()[%d] = %s, want %s", i, n.ID(), want[i])
		}
	}
}
