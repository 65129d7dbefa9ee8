// Package plan loads generation plans and builds the generator graph of
// each planned table.
//
// A plan is a YAML document listing tables and their columns. Each column
// either names a generator kind with its arguments, or reads another
// column's generator through an accessor:
//
//	seed: 42
//	tables:
//	  - entity: Employee
//	    driver: id
//	    columns:
//	      - name: id
//	        kind: counter
//	        args: [2000, 1]
//	      - name: department_id
//	        kind: to_one
//	        listen: id
//	        args: [1, "1,500:0", "501,2000:2"]
//
// Kinds are resolved through a Registry; DefaultRegistry knows counter,
// shared_counter, collection_element, sliding_element, collection_owner,
// hierarchy, query, to_one and uuid.
package plan
