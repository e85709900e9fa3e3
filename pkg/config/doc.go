/*
Package config loads a preset directory - servers.yml, processes.yml,
and constraints.yml - into pkg/types values.

Required numeric fields (ram/cpu/disk/bandwidth on a server; ram/disk/
bandwidth on a process) are decoded through pointer fields so a missing
key can be told apart from an explicit zero. A missing key produces a
*scheduler.Error of kind ConfigMalformed naming the file, the zero-based
entry index, and the field; an explicit zero is accepted.

Server green-energy status accepts both the contractual green-enegery
key and the corrected green-energy spelling; when both are present,
green-enegery wins. Constraint percentage fields accept either a bare
number or a string with a trailing "%".

Enum values on load-balancing-strategy and optimization-priorities are
accepted in both the hyphenated spelling presets use (round-robin,
load-balancing, green-energy) and the underscore spelling of the
pkg/types constants. An absent load-balancing-strategy stays empty and
contributes no load-balancing objective term. Unrecognized tokens in
optimization-priorities are dropped with a logged warning rather than
failing the load, matching the rest of the model-building code's "warn
and continue" posture for soft problems.

Percentage caps distinguish an absent key (full capacity) from an
explicit zero (a 0% cap, under which nothing fits).

constraints.yml also accepts an optional forced-idle-servers list,
naming servers to exclude from placement entirely for this run (e.g.
drained ahead of decommission) - distinct from
servers-for-redundancy's "let the solver pick which k stay idle".
*/
package config
