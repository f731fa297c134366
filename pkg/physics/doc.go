/*
Package physics implements the simulation shared by the physics blocks.

A Simulation keeps its bodies in an arena addressed by generation-checked
handles. Removing a body bumps the generation of its slot, and every handle
also records the simulation that issued it, so a stale handle fails with
fault.ErrNotFound instead of reaching another body.

The simulation and body collections are published to other blocks as
tagged objects (see SimulationTag and RigidBodyTag) and must be checked
with SimulationFrom or RigidBodyFrom on every use.
*/
package physics
