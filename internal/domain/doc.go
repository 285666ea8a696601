// Package domain defines the core business entities of the study engine:
// decks, cards, per-learner card progress, study sessions, daily activity
// aggregates and learner progression state. Entities validate themselves;
// persistence and orchestration live elsewhere.
package domain
