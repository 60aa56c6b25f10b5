package driver

// The reference biochemistry graph: (:Compound) and (:Reaction) nodes tagged
// with a database name, joined by HAS_REAGENT edges that carry the signed
// coefficient and the compartment slot of the reagent.
const (
	SaveCompoundQuery = `
		MERGE (c:Compound {id: $id, db: $db})
		SET c.name = $name,
			c.formula = $formula,
			c.charge = $charge,
			c.aliases = $aliases
		RETURN c.id AS id
	`

	SaveReactionQuery = `
		MERGE (r:Reaction {id: $id, db: $db})
		SET r.name = $name,
			r.direction = $direction
		RETURN r.id AS id
	`

	SaveReagentEdgeQuery = `
		MATCH (r:Reaction {id: $reaction_id, db: $db})
		MATCH (c:Compound {id: $compound_id, db: $db})
		MERGE (r)-[e:HAS_REAGENT {slot: $slot}]->(c)
		SET e.coefficient = $coefficient
		RETURN r.id AS id
	`

	ListCompoundsQuery = `
		MATCH (c:Compound {db: $db})
		RETURN c.id AS id, c.name AS name, c.formula AS formula, c.charge AS charge, c.aliases AS aliases
		ORDER BY id
	`

	ListReactionReagentsQuery = `
		MATCH (r:Reaction {db: $db})
		OPTIONAL MATCH (r)-[e:HAS_REAGENT]->(c:Compound)
		RETURN r.id AS id, r.name AS name, r.direction AS direction,
			c.id AS compound, e.coefficient AS coefficient, e.slot AS slot
		ORDER BY id
	`

	CountBiochemistryQuery = `
		MATCH (n {db: $db})
		WHERE n:Compound OR n:Reaction
		RETURN count(n) AS count
	`

	DeleteBiochemistryQuery = `
		MATCH (n {db: $db})
		WHERE n:Compound OR n:Reaction
		DETACH DELETE n
	`
)
