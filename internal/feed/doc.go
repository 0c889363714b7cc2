// Package feed fetches the upstream vehicle-location endpoint and normalizes
// its heterogeneous JSON shapes into a uniform []watch.Vehicle snapshot.
package feed
