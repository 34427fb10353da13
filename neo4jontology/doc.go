// Package neo4jontology mirrors a sensor class hierarchy into a Neo4j database
// and loads it back.
//
// Each class becomes a node labelled SensorClass, keyed by its name, holding the
// statistical parameters and units of measure of the class as properties. A
// SUBCLASS_OF relationship leads from every class to each of its declared
// superclasses that is part of the hierarchy, so the graph can be explored with
// Cypher:
//
//	MATCH (c:SensorClass {name: 'RoomTemperature'})-[:SUBCLASS_OF*]->(a)
//	RETURN a.name
//
// The ordered superclass list is also kept as a node property, which preserves
// references to classes missing from the hierarchy. Load relies on the
// properties alone.
package neo4jontology
