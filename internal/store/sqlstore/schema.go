package sqlstore

// schema is valid for both SQLite and PostgreSQL. List columns on tools hold
// JSON arrays; display order lives in category_tool_order.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    collapsed BOOLEAN NOT NULL DEFAULT FALSE,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tools (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    what_it_is TEXT NOT NULL DEFAULT '',
    capabilities TEXT NOT NULL DEFAULT '[]',
    best_for TEXT NOT NULL DEFAULT '[]',
    tags TEXT NOT NULL DEFAULT '[]',
    category_id TEXT NOT NULL REFERENCES categories(id),
    is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
    status TEXT NOT NULL,
    content_type TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS category_tool_order (
    tool_id TEXT PRIMARY KEY REFERENCES tools(id),
    category_id TEXT NOT NULL REFERENCES categories(id),
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS collections (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    seq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS collection_tool (
    collection_id TEXT NOT NULL REFERENCES collections(id),
    tool_id TEXT NOT NULL REFERENCES tools(id),
    position INTEGER NOT NULL,
    PRIMARY KEY (collection_id, tool_id)
);

CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category_id);
CREATE INDEX IF NOT EXISTS idx_category_tool_order_category ON category_tool_order(category_id, position);
CREATE INDEX IF NOT EXISTS idx_collection_tool_tool ON collection_tool(tool_id);
`
