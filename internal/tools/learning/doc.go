// Package learning implements the agent's tool set over the learner's
// goals, paths, course units, and ability assessments.
//
// Tools are built by a Service that carries the persistence handle and
// the journey/plan collaborators; RegisterAll wires the full set into a
// tools.Registry. Every tool returns a JSON-shaped map so response
// rendering can inspect fields without knowing which tool produced them.
package learning
