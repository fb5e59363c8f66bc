package driver

const (
	LoadEntitiesQuery = `
		MATCH (n:Entity {group_id: $group_id})
		RETURN n.uuid AS id, n.title AS title, n.description AS description,
			n.type AS type, n.aliases AS aliases
		ORDER BY n.title
	`

	LoadRelationshipsQuery = `
		MATCH (s:Entity {group_id: $group_id})-[r:RELATES_TO]->(t:Entity {group_id: $group_id})
		RETURN s.title AS source, t.title AS target,
			r.description AS description, r.weight AS weight
	`

	UpdatePrimaryEntityQuery = `
		MATCH (p:Entity {group_id: $group_id, title: $title})
		SET p.description = $description, p.aliases = $aliases
		RETURN p.title AS title
	`

	RewireOutgoingQuery = `
		MATCH (m:Entity {group_id: $group_id, title: $merged})-[r:RELATES_TO]->(o)
		MATCH (p:Entity {group_id: $group_id, title: $primary})
		WHERE o <> p
		MERGE (p)-[nr:RELATES_TO]->(o)
		ON CREATE SET nr = properties(r)
	`

	RewireIncomingQuery = `
		MATCH (o)-[r:RELATES_TO]->(m:Entity {group_id: $group_id, title: $merged})
		MATCH (p:Entity {group_id: $group_id, title: $primary})
		WHERE o <> p
		MERGE (o)-[nr:RELATES_TO]->(p)
		ON CREATE SET nr = properties(r)
	`

	DeleteAbsorbedEntityQuery = `
		MATCH (m:Entity {group_id: $group_id, title: $merged})
		DETACH DELETE m
	`
)
