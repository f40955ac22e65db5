package transport

import (
	"context"
	"net"
	"strconv"
)

// Family is the network address family of a candidate.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Candidate is one resolved transport address. It is produced by the
// resolver and consumed by exactly one dial or bind attempt.
type Candidate struct {
	Family Family
	Host   string // numeric address, or a wildcard for passive candidates
	Port   string // numeric port
}

// Addr returns the joined host:port form understood by the transports.
func (c Candidate) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

// Wildcard reports whether the candidate is an unspecified bind address.
// Transports bind wildcard v6 candidates dual-stack so v4 peers can still
// connect, matching a v6 wildcard bind without V6ONLY.
func (c Candidate) Wildcard() bool {
	ip := net.ParseIP(c.Host)
	return ip != nil && ip.IsUnspecified()
}

// Resolver turns a host/port pair into an ordered candidate list covering
// all address families the name resolves to.
type Resolver struct {
	r *net.Resolver
}

// NewResolver returns a resolver backed by the system default resolver.
func NewResolver() *Resolver { return &Resolver{r: net.DefaultResolver} }

// Resolve produces dial candidates for host:port, or wildcard bind
// candidates when passive is true (host is ignored then). Resolution never
// yields an empty success: total failure is reported as *ResolutionError
// carrying the resolver's diagnostic.
func (rv *Resolver) Resolve(ctx context.Context, host, port string, passive bool) ([]Candidate, error) {
	portNum, err := rv.lookupPort(ctx, port)
	if err != nil {
		return nil, &ResolutionError{Host: host, Port: port, Err: err}
	}

	if passive {
		// Wildcard bind candidates, IPv6 first as getaddrinfo orders
		// AI_PASSIVE results on dual-stack hosts.
		return []Candidate{
			{Family: FamilyIPv6, Host: "::", Port: portNum},
			{Family: FamilyIPv4, Host: "0.0.0.0", Port: portNum},
		}, nil
	}

	addrs, err := rv.r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &ResolutionError{Host: host, Port: port, Err: err}
	}
	cands := make([]Candidate, 0, len(addrs))
	for _, a := range addrs {
		fam := FamilyIPv6
		if a.IP.To4() != nil {
			fam = FamilyIPv4
		}
		cands = append(cands, Candidate{Family: fam, Host: a.IP.String(), Port: portNum})
	}
	if len(cands) == 0 {
		return nil, &ResolutionError{Host: host, Port: port, Err: &net.DNSError{Err: "no addresses", Name: host}}
	}
	return cands, nil
}

// lookupPort accepts numeric ports directly and resolves service names via
// the system services database.
func (rv *Resolver) lookupPort(ctx context.Context, port string) (string, error) {
	if n, err := strconv.Atoi(port); err == nil && n >= 0 && n <= 65535 {
		return port, nil
	}
	n, err := rv.r.LookupPort(ctx, "tcp", port)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(n), nil
}
