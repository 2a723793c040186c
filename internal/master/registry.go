// Package master implements the coordinator of the cluster: it owns
// accounts and characters, registers game nodes, balances characters
// onto map channels, and relays chat between clients.
package master

import (
	"sync"

	"github.com/FeXyK/Authory/internal/transport"
)

// nodeMaxLoad is the player capacity of one node; channels on a full
// node are skipped during routing.
const nodeMaxLoad = 1000

// Channel is one running map server instance on some node. Several
// channels of the same map spread its population.
type Channel struct {
	Port     int32
	MapIndex int32
	MapName  string
	Node     *NodeLink

	PlayerCount int32
}

// NodeLink is a registered game node.
type NodeLink struct {
	Conn     transport.Conn
	Host     string
	Channels []*Channel
}

// Load is the total player count across the node's channels.
func (n *NodeLink) Load() int32 {
	var total int32
	for _, ch := range n.Channels {
		total += ch.PlayerCount
	}
	return total
}

// MostLoadedChannel returns the node's busiest channel, nil when the
// node hosts nothing.
func (n *NodeLink) MostLoadedChannel() *Channel {
	var best *Channel
	for _, ch := range n.Channels {
		if best == nil || ch.PlayerCount > best.PlayerCount {
			best = ch
		}
	}
	return best
}

// Registry tracks nodes and the channels they host.
type Registry struct {
	mu    sync.Mutex
	nodes []*NodeLink
	byMap map[int32][]*Channel
}

func NewRegistry() *Registry {
	return &Registry{byMap: make(map[int32][]*Channel)}
}

func (r *Registry) AddNode(conn transport.Conn, host string) *NodeLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := &NodeLink{Conn: conn, Host: host}
	r.nodes = append(r.nodes, n)
	return n
}

// RemoveNode drops a node and every channel it hosted.
func (r *Registry) RemoveNode(conn transport.Conn) *NodeLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.nodes {
		if n.Conn != conn {
			continue
		}
		r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
		for _, ch := range n.Channels {
			chans := r.byMap[ch.MapIndex]
			for j, c := range chans {
				if c == ch {
					r.byMap[ch.MapIndex] = append(chans[:j], chans[j+1:]...)
					break
				}
			}
		}
		return n
	}
	return nil
}

func (r *Registry) NodeByConn(conn transport.Conn) *NodeLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.Conn == conn {
			return n
		}
	}
	return nil
}

func (r *Registry) NodeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}

// AddChannel records a channel a node reported up.
func (r *Registry) AddChannel(n *NodeLink, port, mapIndex int32, mapName string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := &Channel{Port: port, MapIndex: mapIndex, MapName: mapName, Node: n}
	n.Channels = append(n.Channels, ch)
	r.byMap[mapIndex] = append(r.byMap[mapIndex], ch)
	return ch
}

// ChannelAt finds a channel by node connection and port.
func (r *Registry) ChannelAt(conn transport.Conn, port int32) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.Conn != conn {
			continue
		}
		for _, ch := range n.Channels {
			if ch.Port == port {
				return ch
			}
		}
	}
	return nil
}

// LatestPort is the highest port any channel listens on, zero when the
// cluster hosts nothing yet. New nodes continue numbering above it.
func (r *Registry) LatestPort() int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest int32
	for _, n := range r.nodes {
		for _, ch := range n.Channels {
			if ch.Port > latest {
				latest = ch.Port
			}
		}
	}
	return latest
}

// LeastLoadedChannel picks the emptiest channel of a map, skipping
// channels on saturated nodes. Ties keep the first one seen, so load
// settles on the oldest channels first.
func (r *Registry) LeastLoadedChannel(mapIndex int32) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *Channel
	for _, ch := range r.byMap[mapIndex] {
		if ch.Node.Load() >= nodeMaxLoad {
			continue
		}
		if best == nil || ch.PlayerCount < best.PlayerCount {
			best = ch
		}
	}
	return best
}

// MostLoadedNode returns the busiest node, nil when none registered.
func (r *Registry) MostLoadedNode() *NodeLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *NodeLink
	for _, n := range r.nodes {
		if best == nil || n.Load() > best.Load() {
			best = n
		}
	}
	return best
}

// UpdateLoad applies one entry of a node's load report.
func (r *Registry) UpdateLoad(n *NodeLink, port, playerCount int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range n.Channels {
		if ch.Port == port {
			ch.PlayerCount = playerCount
			return
		}
	}
}
