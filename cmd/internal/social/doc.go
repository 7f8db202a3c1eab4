// Package social implements the user/post operations behind the GraphQL API.
//
// Every mutating operation is assembled from a guard chain at construction
// time; the plain operation bodies assume their checks have already passed.
package social
