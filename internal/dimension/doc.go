// Package dimension builds and serializes the external dimension XML file
// consumed by the indexing system.
//
// The document has a single root element, external_dimensions. Its first
// child is a node describing the dimension itself (id and name both equal
// to the dimension name). Every flattened taxonomy visit follows as a
// sibling node; the hierarchy is carried by the parent/id attributes, not
// by element nesting:
//
//	<external_dimensions>
//	  <node id="Topics" name="Topics"></node>
//	  <node id="..." name="Alpha" parent="Topics" classify="false" search="true">
//	    <synonym search="false" name="A" classify="true"></synonym>
//	    <property name="UNIQUE_PATH">...</property>
//	    <property name="SID">A</property>
//	  </node>
//	</external_dimensions>
package dimension
